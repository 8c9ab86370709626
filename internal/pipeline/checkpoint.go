package pipeline

import (
	"fmt"
	"io"

	"github.com/ppiankov/medusecase/internal/model"
	"github.com/ppiankov/medusecase/internal/progress"
)

// Saver persists the whole dataset
type Saver interface {
	Save(ds *model.Dataset) error
}

// checkpoint buffers resolved usecases and writes them back in bulk.
// Rows only reach the dataset through flush, so a crash loses at most the
// pending buffer.
type checkpoint struct {
	ds      *model.Dataset
	saver   Saver
	every   int
	pending map[int]string
	saves   int

	log   *progress.Log
	out   io.Writer
	label string
}

func newCheckpoint(ds *model.Dataset, saver Saver, every int, log *progress.Log, out io.Writer, label string) *checkpoint {
	if every <= 0 {
		every = 1
	}
	return &checkpoint{
		ds:      ds,
		saver:   saver,
		every:   every,
		pending: make(map[int]string, every),
		log:     log,
		out:     out,
		label:   label,
	}
}

// add records a resolution and flushes once the buffer is full
func (c *checkpoint) add(row int, usecase string) error {
	c.pending[row] = usecase
	if len(c.pending) >= c.every {
		if err := c.flush(); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "✓ Saved progress to %s\n", c.label)
	}
	return nil
}

// flush applies pending rows and saves when anything is pending
func (c *checkpoint) flush() error {
	if len(c.pending) == 0 {
		return nil
	}
	return c.save()
}

// save applies pending rows and always writes the dataset
func (c *checkpoint) save() error {
	for row, v := range c.pending {
		c.ds.SetUsecase(row, v)
	}
	n := len(c.pending)

	if err := c.saver.Save(c.ds); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	clear(c.pending)
	c.saves++
	c.log.Saved(c.label, n)
	return nil
}
