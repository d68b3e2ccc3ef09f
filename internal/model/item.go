package model

import (
	"time"

	"github.com/google/uuid"
)

// ItemType discriminates the item union.
type ItemType string

const (
	ItemTypeMCQ           ItemType = "mcq"
	ItemTypeScenario      ItemType = "scenario"
	ItemTypeOpenEnded     ItemType = "open_ended"
	ItemTypePromptWriting ItemType = "prompt_writing"
	ItemTypeMatrix        ItemType = "matrix"
)

// Item is one entry of the append-only item bank. Type is the discriminator
// selecting which payload variant is populated; the bank never mutates an
// item that has been answered, soft deletion goes through Active=false.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Stem      string    `json:"stem"`
	Type      ItemType  `json:"type"`
	Tags      string    `json:"tags,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`

	choice *ChoicePayload
	open   *OpenPayload
	matrix *MatrixPayload
}

// ChoicePayload carries the fields of mcq and scenario items.
type ChoicePayload struct {
	Competency     string   `json:"competency"`
	Difficulty     float64  `json:"difficulty_b"`
	Discrimination float64  `json:"discrimination_a"`
	Choices        []string `json:"choices"`
	AnswerKey      string   `json:"answer_key"`
}

// OpenPayload carries the fields of open_ended and prompt_writing items.
type OpenPayload struct {
	Competency     string            `json:"competency"`
	Difficulty     float64           `json:"difficulty_b"`
	Discrimination float64           `json:"discrimination_a"`
	Rubric         map[string]string `json:"rubric"`
}

// MatrixPayload carries the fields of matrix items. PointsByLetter is the
// per-item shuffle mapping (answer letter → points 1-4) stored when choices
// were presented in randomized order; nil means the item predates shuffling.
type MatrixPayload struct {
	Block          string         `json:"block"`
	Choices        []string       `json:"choices"`
	PointsByLetter map[string]int `json:"points_by_letter,omitempty"`
}

// NewChoiceItem builds an mcq or scenario item.
func NewChoiceItem(typ ItemType, stem string, p ChoicePayload) *Item {
	return &Item{ID: uuid.New(), Stem: stem, Type: typ, Active: true, choice: &p}
}

// NewOpenItem builds an open_ended or prompt_writing item.
func NewOpenItem(typ ItemType, stem string, p OpenPayload) *Item {
	return &Item{ID: uuid.New(), Stem: stem, Type: typ, Active: true, open: &p}
}

// NewMatrixItem builds a matrix item.
func NewMatrixItem(stem string, p MatrixPayload) *Item {
	return &Item{ID: uuid.New(), Stem: stem, Type: ItemTypeMatrix, Active: true, matrix: &p}
}

// Choice returns the choice payload when the item is mcq or scenario.
func (i *Item) Choice() (*ChoicePayload, bool) {
	return i.choice, i.choice != nil
}

// Open returns the open payload when the item is open_ended or prompt_writing.
func (i *Item) Open() (*OpenPayload, bool) {
	return i.open, i.open != nil
}

// Matrix returns the matrix payload when the item is a matrix item.
func (i *Item) Matrix() (*MatrixPayload, bool) {
	return i.matrix, i.matrix != nil
}

// SetPayloads installs the variant payload matching the item type. Used by
// the repository when scanning rows; exactly one payload should be non-nil.
func (i *Item) SetPayloads(choice *ChoicePayload, open *OpenPayload, matrix *MatrixPayload) {
	i.choice, i.open, i.matrix = choice, open, matrix
}

// Competency returns the competency for ability-scored variants, or "" for
// matrix items.
func (i *Item) Competency() string {
	switch {
	case i.choice != nil:
		return i.choice.Competency
	case i.open != nil:
		return i.open.Competency
	default:
		return ""
	}
}

// Block returns the thematic block for matrix items, or "".
func (i *Item) Block() string {
	if i.matrix != nil {
		return i.matrix.Block
	}
	return ""
}

// Dimension returns the competency or block, whichever the variant carries.
func (i *Item) Dimension() string {
	if d := i.Competency(); d != "" {
		return d
	}
	return i.Block()
}

// Params returns the IRT parameters (difficulty b, discrimination a).
// Matrix items have no parameters and report zeros.
func (i *Item) Params() (difficulty, discrimination float64) {
	switch {
	case i.choice != nil:
		return i.choice.Difficulty, i.choice.Discrimination
	case i.open != nil:
		return i.open.Difficulty, i.open.Discrimination
	default:
		return 0, 0
	}
}

// Choices returns the presented answer choices, if the variant has any.
func (i *Item) Choices() []string {
	switch {
	case i.choice != nil:
		return i.choice.Choices
	case i.matrix != nil:
		return i.matrix.Choices
	default:
		return nil
	}
}

// PublicItem is the item view sent to assessment takers. It never includes
// the answer key, rubric or points mapping.
type PublicItem struct {
	ID      uuid.UUID `json:"id"`
	Stem    string    `json:"stem"`
	Type    ItemType  `json:"type"`
	Choices []string  `json:"choices,omitempty"`
}

// Public strips grading material from the item.
func (i *Item) Public() PublicItem {
	return PublicItem{
		ID:      i.ID,
		Stem:    i.Stem,
		Type:    i.Type,
		Choices: i.Choices(),
	}
}
