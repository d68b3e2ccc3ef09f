package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oazco/profiler-backend/internal/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

const itemColumns = `id, stem, type, tags, active, created_at,
	competency, difficulty_b, discrimination_a, choices, answer_key, rubric,
	block, points_by_letter`

// ItemRepository handles item bank data access.
type ItemRepository struct {
	db Querier
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db Querier) *ItemRepository {
	return &ItemRepository{db: db}
}

// WithTx returns a copy bound to the transaction.
func (r *ItemRepository) WithTx(tx pgx.Tx) *ItemRepository {
	return &ItemRepository{db: tx}
}

// Create appends a new item to the bank.
func (r *ItemRepository) Create(ctx context.Context, item *model.Item) error {
	var (
		competency, answerKey, block *string
		difficulty, discrimination   *float64
		choices                      []string
		rubric                       map[string]string
		pointsByLetter               map[string]int
	)

	if p, ok := item.Choice(); ok {
		competency = &p.Competency
		difficulty = &p.Difficulty
		discrimination = &p.Discrimination
		choices = p.Choices
		answerKey = &p.AnswerKey
	}
	if p, ok := item.Open(); ok {
		competency = &p.Competency
		difficulty = &p.Difficulty
		discrimination = &p.Discrimination
		rubric = p.Rubric
	}
	if p, ok := item.Matrix(); ok {
		block = &p.Block
		choices = p.Choices
		pointsByLetter = p.PointsByLetter
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO items (id, stem, type, tags, active,
			competency, difficulty_b, discrimination_a, choices, answer_key, rubric,
			block, points_by_letter)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at`,
		item.ID, item.Stem, item.Type, item.Tags, item.Active,
		competency, difficulty, discrimination, choices, answerKey, rubric,
		block, pointsByLetter,
	).Scan(&item.CreatedAt)
}

// GetByID retrieves one item by id.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

// ListActiveAdaptive retrieves all active items of the adaptive variant.
func (r *ItemRepository) ListActiveAdaptive(ctx context.Context) ([]*model.Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE active AND type <> $1
		 ORDER BY created_at`, model.ItemTypeMatrix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectItems(rows)
}

// ListActiveByBlock retrieves active matrix items of one thematic block.
func (r *ItemRepository) ListActiveByBlock(ctx context.Context, block string) ([]*model.Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE active AND type = $1 AND block = $2
		 ORDER BY created_at`, model.ItemTypeMatrix, block)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectItems(rows)
}

func collectItems(rows pgx.Rows) ([]*model.Item, error) {
	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// scanItem reads one item row and installs the payload variant matching its
// type discriminator.
func scanItem(row pgx.Row) (*model.Item, error) {
	var (
		item                         model.Item
		competency, answerKey, block *string
		difficulty, discrimination   *float64
		choices                      []string
		rubric                       map[string]string
		pointsByLetter               map[string]int
	)

	err := row.Scan(
		&item.ID, &item.Stem, &item.Type, &item.Tags, &item.Active, &item.CreatedAt,
		&competency, &difficulty, &discrimination, &choices, &answerKey, &rubric,
		&block, &pointsByLetter,
	)
	if err != nil {
		return nil, err
	}

	switch item.Type {
	case model.ItemTypeMCQ, model.ItemTypeScenario:
		item.SetPayloads(&model.ChoicePayload{
			Competency:     deref(competency),
			Difficulty:     derefF(difficulty),
			Discrimination: derefF(discrimination),
			Choices:        choices,
			AnswerKey:      deref(answerKey),
		}, nil, nil)
	case model.ItemTypeOpenEnded, model.ItemTypePromptWriting:
		item.SetPayloads(nil, &model.OpenPayload{
			Competency:     deref(competency),
			Difficulty:     derefF(difficulty),
			Discrimination: derefF(discrimination),
			Rubric:         rubric,
		}, nil)
	case model.ItemTypeMatrix:
		item.SetPayloads(nil, nil, &model.MatrixPayload{
			Block:          deref(block),
			Choices:        choices,
			PointsByLetter: pointsByLetter,
		})
	}

	return &item, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
