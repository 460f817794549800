package env

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/domino14/ntuple2048/board"
)

func testRNG(b byte) *frand.RNG {
	seed := make([]byte, 32)
	seed[0] = b
	return frand.NewCustom(seed, 1024, 12)
}

func TestReset(t *testing.T) {
	is := is.New(t)
	e := New(testRNG(1))
	b := e.Reset()
	is.Equal(b.EmptyCount(), 14)
	is.Equal(e.Board(), b)
	is.Equal(e.Score(), 0)
	is.Equal(e.Moves(), 0)
}

func TestIllegalStep(t *testing.T) {
	is := is.New(t)
	e := New(testRNG(2))
	e.Reset()
	var b board.Board
	b.Set(0, 1)
	e.SetBoard(b)

	res := e.Step(board.ActionUp)
	is.True(res.Info.Illegal)
	is.Equal(res.Reward, 0)
	is.Equal(res.State, b)
	is.True(!res.Done)
	is.Equal(e.Moves(), 1)
}

func TestLegalStepSpawns(t *testing.T) {
	is := is.New(t)
	e := New(testRNG(3))
	e.Reset()
	var b board.Board
	b.Set(0, 1)
	b.Set(1, 1)
	e.SetBoard(b)

	res := e.Step(board.ActionLeft)
	is.True(!res.Info.Illegal)
	is.Equal(res.Reward, 4)
	is.Equal(res.State.At(0), 2)
	is.Equal(res.State.EmptyCount(), 14)
	is.Equal(e.Score(), 4)
}

func TestDone(t *testing.T) {
	is := is.New(t)
	e := New(testRNG(4))
	e.Reset()
	// only the top row can merge; Done must agree with CanMove whatever
	// the spawn does
	var b board.Board
	for i := 0; i < 16; i++ {
		b.Set(i, 1+(i+i/4)%2)
	}
	b.Set(0, 3)
	b.Set(1, 3)
	b.Set(2, 4)
	b.Set(3, 5)
	e.SetBoard(b)

	res := e.Step(board.ActionLeft)
	is.Equal(res.Reward, 16)
	is.True(res.Done == !res.State.CanMove())
}

func TestGameEnds(t *testing.T) {
	is := is.New(t)
	e := New(testRNG(5))
	e.Reset()
	for i := 0; i < 100000; i++ {
		res := e.Step(e.SampleMove())
		if res.Done {
			is.True(!e.Board().CanMove())
			is.True(e.Score() > 0)
			return
		}
	}
	t.Fatal("random play never finished")
}

func TestRender(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	e := New(testRNG(6))
	e.SetRenderer(&buf)
	e.Reset()
	is.Equal(strings.Count(buf.String(), "\n"), 6)
	e.Step(e.SampleMove())
	is.Equal(strings.Count(buf.String(), "\n"), 12)
}

func TestNilRNG(t *testing.T) {
	is := is.New(t)
	e := New(nil)
	is.Equal(e.Reset().EmptyCount(), 14)
}
