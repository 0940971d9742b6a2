package innout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// InsertionCable batches arrow records and writes each batch through an
// Insertion as a single parquet upload.
type InsertionCable struct {
	ins *Insertion

	schema      *arrow.Schema
	currentSize uint64
	sendBatches []*sendBatch
	sendBatchCh chan *sendBatch
	started     atomic.Bool
	stopped     chan struct{}
	flushes     sync.WaitGroup

	// BatchSize is the accumulated column size in bytes above which a batch is
	// flushed. Zero flushes on every non-empty send.
	BatchSize uint64
	// BatchInterval is the longest time a record waits before it is flushed.
	// A non-positive interval disables time-based flushing, leaving BatchSize
	// and Close as the only triggers.
	BatchInterval time.Duration
}

type sendBatch struct {
	batch arrow.Record
	err   chan error
}

// InsertionCable creates a new cable writing records of the given schema through ins.
func (c *Client) InsertionCable(ins *Insertion, schema *arrow.Schema) *InsertionCable {
	return &InsertionCable{
		ins:           ins,
		schema:        schema,
		sendBatches:   make([]*sendBatch, 0),
		sendBatchCh:   make(chan *sendBatch),
		stopped:       make(chan struct{}),
		BatchSize:     1024 * 1024, // default to 1MiB
		BatchInterval: time.Second, // default to 1 second
	}
}

// Start starts the batching loop. BatchSize and BatchInterval must not be
// changed afterwards.
func (c *InsertionCable) Start(ctx context.Context) {
	c.started.Store(true)
	go func() {
		defer close(c.stopped)

		// a nil channel never fires
		var tick <-chan time.Time
		if c.BatchInterval > 0 {
			ticker := time.NewTicker(c.BatchInterval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				if len(c.sendBatches) > 0 {
					c.flush(ctx)
				}
			case sb, more := <-c.sendBatchCh:
				if !more {
					if len(c.sendBatches) > 0 {
						c.flush(ctx)
					}
					return
				}

				if !sb.batch.Schema().Equal(c.schema) {
					sb.err <- errors.New("schema mismatch")
					close(sb.err)
					sb.batch.Release()
					continue
				}

				for _, col := range sb.batch.Columns() {
					size := col.Data().SizeInBytes()
					if size > math.MaxUint64-c.currentSize {
						c.currentSize = math.MaxUint64
						break
					}
					c.currentSize += size
				}
				c.sendBatches = append(c.sendBatches, sb)

				if c.currentSize > c.BatchSize {
					c.flush(ctx)
				}
			}
		}
	}()
}

func (c *InsertionCable) flush(ctx context.Context) {
	sendBatches := c.sendBatches
	c.sendBatches = make([]*sendBatch, 0)
	c.currentSize = 0

	c.flushes.Add(1)
	go func() {
		defer c.flushes.Done()

		err := c.write(ctx, sendBatches)
		for _, sb := range sendBatches {
			if err != nil {
				sb.err <- err
			}
			close(sb.err)
			sb.batch.Release()
		}
	}()
}

func (c *InsertionCable) write(ctx context.Context, sendBatches []*sendBatch) error {
	records := make([]arrow.Record, 0, len(sendBatches))
	for _, sb := range sendBatches {
		records = append(records, sb.batch)
	}

	tbl := array.NewTableFromRecords(c.schema, records)
	defer tbl.Release()

	resp, err := c.ins.Write(ctx, &DataFrame{Table: tbl, ContentType: ContentTypeParquet})
	if err != nil {
		return err
	}
	return resp.Err()
}

// Send queues the record for writing. The record is retained until it is
// flushed, so the caller may release it right away.
//
// The returned channel yields the write error, if any, and is closed once the
// record is flushed. A nil record yields ErrInvalidArgument without being queued.
func (c *InsertionCable) Send(batch arrow.Record) <-chan error {
	if batch == nil {
		errCh := make(chan error, 1)
		errCh <- fmt.Errorf("%w: nil record", ErrInvalidArgument)
		close(errCh)
		return errCh
	}

	batch.Retain()
	sb := &sendBatch{
		batch: batch,
		err:   make(chan error, 1),
	}
	c.sendBatchCh <- sb
	return sb.err
}

// Close flushes the queued records and waits for all in-flight writes to finish.
// Closing a cable that was never started returns immediately.
func (c *InsertionCable) Close() {
	close(c.sendBatchCh)
	if !c.started.Load() {
		return
	}
	<-c.stopped
	c.flushes.Wait()
}
