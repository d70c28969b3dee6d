package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipflow/sei/internal/db"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/reasoning"
	"equipflow/sei/internal/session"
)

func TestPriorityScore(t *testing.T) {
	tests := []struct {
		name       string
		volume, kd int
		commercial float64
		want       float64
	}{
		{"basic", 1000, 10, 8, 80},
		{"zero difficulty treated as one", 500, 0, 10, 500},
		{"no intent", 1000, 5, 0, 0},
		{"no volume", 0, 5, 9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PriorityScore(tt.volume, tt.kd, tt.commercial), 1e-9)
		})
	}
}

func TestClassify_Spoke(t *testing.T) {
	backend := reasoning.Static("```json\n" + `{
		"equipment_type": "Excavator",
		"geo": "Texas",
		"modifier": "none",
		"brand": "none",
		"spoke_type": "financing",
		"commercial_score": 8.5,
	}` + "\n```")
	sess := session.New(3, nil, nil)
	c := New(backend, sess, logger.Discard())

	got, err := c.Classify(context.Background(), "excavator financing texas", 1000, 20)
	require.NoError(t, err)

	assert.Equal(t, "excavator", got.EquipmentType)
	require.NotNil(t, got.Geo)
	assert.Equal(t, "texas", *got.Geo)
	assert.Nil(t, got.Modifier)
	assert.Nil(t, got.Brand)
	assert.Equal(t, db.SpokeFinancing, got.SpokeType)
	assert.Equal(t, db.CategorySpoke, got.PageCategory)
	assert.InDelta(t, 42.5, got.PriorityScore, 1e-9)
	assert.Equal(t, 500, sess.Budget.Used(session.ServiceClaude))
}

func TestClassify_HubAndGeneral(t *testing.T) {
	c := New(reasoning.Static(`{"equipment_type":"none","spoke_type":"hub","commercial_score":"12"}`), nil, logger.Discard())

	got, err := c.Classify(context.Background(), "equipment", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, GeneralEquipment, got.EquipmentType)
	assert.True(t, got.IsHub())
	assert.Equal(t, 10.0, got.CommercialScore, "score is clamped to 10")
}

func TestClassify_DefaultsSpokeType(t *testing.T) {
	c := New(reasoning.Static(`{"equipment_type":"crane"}`), nil, logger.Discard())

	got, err := c.Classify(context.Background(), "crane loans", 10, 1)
	require.NoError(t, err)

	assert.Equal(t, db.SpokeFinancing, got.SpokeType)
	assert.Equal(t, defaultCommercialScore, got.CommercialScore)
}

func TestClassify_Failures(t *testing.T) {
	tests := []struct {
		name    string
		backend reasoning.Backend
	}{
		{"unreachable", reasoning.BackendFunc(func(context.Context, string, int) (*reasoning.Completion, error) {
			return nil, errors.New("connection refused")
		})},
		{"no json", reasoning.Static("I am unable to classify that.")},
		{"unknown spoke type", reasoning.Static(`{"equipment_type":"crane","spoke_type":"blog"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.backend, nil, logger.Discard())
			_, err := c.Classify(context.Background(), "crane", 0, 0)

			var ce *failure.ClassificationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "crane", ce.Keyword)
			assert.False(t, failure.IsBatchFatal(err))
		})
	}
}

func TestClassify_BudgetVeto(t *testing.T) {
	called := false
	backend := reasoning.BackendFunc(func(context.Context, string, int) (*reasoning.Completion, error) {
		called = true
		return &reasoning.Completion{Text: "{}"}, nil
	})
	sess := session.New(3, map[string]int{session.ServiceClaude: 100}, nil)

	_, err := New(backend, sess, logger.Discard()).Classify(context.Background(), "crane", 0, 0)

	assert.ErrorIs(t, err, failure.ErrBudgetExceeded)
	assert.False(t, called)
}
