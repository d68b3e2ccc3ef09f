package scoring

import (
	"math"
	"testing"
)

func TestThetaModel_HardItemCorrectRaisesScore(t *testing.T) {
	var m ThetaModel
	newScore, newCI := m.Update(50, 30, 2.0, 0.8, 1.0)

	if newScore <= 50 {
		t.Errorf("expected score above 50 after correct answer, got %f", newScore)
	}
	if newCI >= 30 {
		t.Errorf("expected CI below 30, got %f", newCI)
	}
}

func TestDeltaModel_HardItemCorrectRaisesScore(t *testing.T) {
	var m DeltaModel
	newScore, newCI := m.Update(50, 30, 2.0, 0.8, 1.0)

	if newScore <= 50 {
		t.Errorf("expected score above 50 after correct answer, got %f", newScore)
	}
	if newCI >= 30 {
		t.Errorf("expected CI below 30, got %f", newCI)
	}
}

func TestModels_ScoreStaysInBounds(t *testing.T) {
	models := map[string]Model{
		"theta": ThetaModel{},
		"delta": DeltaModel{},
	}

	cases := []struct {
		score, ci, b, a, resp float64
	}{
		{0, 60, 0, 2.5, 0},
		{100, 60, 2, 2.5, 1},
		{100, 5, 0, 2.5, 0},
		{0, 5, 2, 2.5, 1},
		{50, 30, 1, 0.5, 0.5},
		{99.9, 1, 2, 2.5, 1},
		{0.1, 1, 0, 2.5, 0},
	}

	for name, m := range models {
		for _, c := range cases {
			newScore, newCI := m.Update(c.score, c.ci, c.b, c.a, c.resp)
			if newScore < 0 || newScore > 100 {
				t.Errorf("%s: score %f out of [0,100] for input %+v", name, newScore, c)
			}
			if newCI > c.ci {
				t.Errorf("%s: CI widened from %f to %f for input %+v", name, c.ci, newCI, c)
			}
		}
	}
}

func TestThetaModel_ExactUpdate(t *testing.T) {
	var m ThetaModel
	newScore, newCI := m.Update(50, 30, 2.0, 0.8, 1.0)

	// theta=0, z=0.8*(0-2)=-1.6, p=1/(1+e^1.6), gap=1-p, lr=0.24
	p := 1 / (1 + math.Exp(1.6))
	wantTheta := 0.24 * (1 - p)
	wantScore := 50 + wantTheta*16.67

	if math.Abs(newScore-wantScore) > 1e-9 {
		t.Errorf("score = %f, want %f", newScore, wantScore)
	}
	if math.Abs(newCI-25.5) > 1e-9 {
		t.Errorf("ci = %f, want 25.5", newCI)
	}
}

func TestDeltaModel_PartialCredit(t *testing.T) {
	var m DeltaModel
	// resp=0.5 means no movement at all.
	newScore, _ := m.Update(60, 20, 1, 1.0, 0.5)
	if newScore != 60 {
		t.Errorf("neutral partial credit moved score to %f", newScore)
	}

	// resp=0.7 nudges up by (0.7-0.5)*15*0.5 = 1.5.
	newScore, _ = m.Update(60, 20, 1, 1.0, 0.7)
	if math.Abs(newScore-61.5) > 1e-9 {
		t.Errorf("score = %f, want 61.5", newScore)
	}
}

func TestDeltaModel_WrongAnswerAboveAnchor(t *testing.T) {
	var m DeltaModel
	// Easy item (anchor 30) answered wrong while sitting at 70: full negative pull.
	newScore, _ := m.Update(70, 20, 0, 1.0, 0)
	want := 70 - 15*(70.0-30.0)/50
	if math.Abs(newScore-want) > 1e-9 {
		t.Errorf("score = %f, want %f", newScore, want)
	}
}

func TestDifficultyAnchor(t *testing.T) {
	cases := map[float64]float64{0: 30, 1: 50, 2: 70, 5: 50}
	for b, want := range cases {
		if got := DifficultyAnchor(b); got != want {
			t.Errorf("DifficultyAnchor(%f) = %f, want %f", b, got, want)
		}
	}
}

func TestCalculateLevel(t *testing.T) {
	cases := map[float64]Level{
		25: LevelN0,
		35: LevelN1,
		55: LevelN2,
		70: LevelN3,
		85: LevelN4,
		95: LevelN5,
	}
	for score, want := range cases {
		if got := CalculateLevel(score); got != want {
			t.Errorf("CalculateLevel(%f) = %s, want %s", score, got, want)
		}
	}
}

func TestCalculateGlobalScore(t *testing.T) {
	if got := CalculateGlobalScore(nil); got != 50 {
		t.Errorf("empty map should yield 50, got %f", got)
	}
	got := CalculateGlobalScore(map[string]float64{"a": 40, "b": 60})
	if got != 50 {
		t.Errorf("mean of 40 and 60 should be 50, got %f", got)
	}
}
