package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samoylenkodmitry/compose-runtime/internal/snapshotid"
)

func TestReadableReturnsMaxWriterIDVisible(t *testing.T) {
	c := NewChain(1, "v1")
	c.Writable(3, 3).value = "v3"
	c.head.next = &Record{writerID: 1, value: "v1"}

	r := c.Readable(2, snapshotid.Empty)
	require.Equal(t, "v1", r.Value())

	r = c.Readable(3, snapshotid.Empty)
	require.Equal(t, "v3", r.Value())
}

func TestReadableSkipsInvalidatedWriters(t *testing.T) {
	c := NewChain(1, "v1")
	invalid := snapshotid.Of(1)
	require.Panics(t, func() {
		c.Readable(1, invalid)
	}, "expected lookup failure when only readable writer is invalidated")
}

func TestWritableFastPathReturnsHeadWhenOwned(t *testing.T) {
	c := NewChain(5, "v5")
	r := c.Writable(5, 0)
	require.Same(t, c.head, r)
}

func TestWritableReusesInvalidRecordBelowLimit(t *testing.T) {
	c := NewChain(10, "v10")
	stale := &Record{writerID: 2, value: "stale"}
	c.head.next = stale

	r := c.Writable(20, 15) // reuseLimit 15 > stale.writerID(2)
	require.Same(t, stale, r)
	require.EqualValues(t, 20, r.WriterID())
}

func TestWritableAllocatesNewHeadWhenNoneReusable(t *testing.T) {
	c := NewChain(10, "v10")
	r := c.Writable(20, 5) // reuseLimit 5 <= head.writerID(10), no reuse candidate
	require.Same(t, c.head, r, "a fresh record becomes the new head")
	require.Equal(t, snapshotid.ID(20), r.WriterID())
}

func TestOverwriteUnusedRecordsKeepsOnlyNewestBelowLimit(t *testing.T) {
	c := NewChain(30, "v30")
	r20 := &Record{writerID: 20, value: "v20"}
	r10 := &Record{writerID: 10, value: "v10"}
	c.head.next = r20
	r20.next = r10

	c.OverwriteUnusedRecords(25) // limit 25: 20 and 10 are below limit

	require.EqualValues(t, 20, r20.WriterID(), "newest below-limit record is kept")
	require.Equal(t, snapshotid.Invalid, r10.WriterID(), "older below-limit record is marked Invalid")
	require.Equal(t, "v20", r10.Value(), "reclaimed record's value is replaced with the kept value")
}
