package guestcart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdd_SumsQuantities(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add("sid", Line{ProductID: "p1", Quantity: 2})
	lines := s.Add("sid", Line{ProductID: "p1", Quantity: 3})

	assert.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestAdd_ClampsToOne(t *testing.T) {
	t.Parallel()

	s := NewStore()
	lines := s.Add("sid", Line{ProductID: "p1", Quantity: 0})
	assert.Equal(t, 1, lines[0].Quantity)

	lines = s.Add("sid", Line{ProductID: "p2", Quantity: -4})
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestSetQuantity(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add("sid", Line{ProductID: "p1", Quantity: 1})
	lines := s.SetQuantity("sid", "p1", 7)
	assert.Equal(t, 7, lines[0].Quantity)

	lines = s.SetQuantity("sid", "p1", 0)
	assert.Empty(t, lines)
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add("sid", Line{ProductID: "p1"})
	s.Add("sid", Line{ProductID: "p2"})

	lines := s.Remove("sid", "p1")
	assert.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].ProductID)

	s.Clear("sid")
	assert.Empty(t, s.Lines("sid"))
}

func TestSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add("a", Line{ProductID: "p1"})
	s.Add("b", Line{ProductID: "p2"})

	assert.Len(t, s.Lines("a"), 1)
	assert.Len(t, s.Lines("b"), 1)
	assert.Equal(t, "p1", s.Lines("a")[0].ProductID)
}

func TestLines_ReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add("sid", Line{ProductID: "p1", Quantity: 1})

	lines := s.Lines("sid")
	lines[0].Quantity = 99

	assert.Equal(t, 1, s.Lines("sid")[0].Quantity)
}
