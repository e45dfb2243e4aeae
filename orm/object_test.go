package orm

import (
	"testing"

	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// taggedCounter is a counter with a mandatory reference. Copy follows the
// pointer the way production models follow their metadata, so it must never
// run on a zero value.
type taggedCounter struct {
	count int64
	tag   *Counter
}

var _ CloneableData = (*taggedCounter)(nil)

func (c *taggedCounter) Marshal() ([]byte, error) {
	return append(EncodeSequence(c.count), EncodeSequence(c.tag.Count)...), nil
}

func (c *taggedCounter) Unmarshal(raw []byte) error {
	if len(raw) != 16 {
		return errors.Wrap(errors.ErrInput, "invalid length")
	}
	c.count = DecodeSequence(raw[:8])
	c.tag = &Counter{Count: DecodeSequence(raw[8:])}
	return nil
}

func (c *taggedCounter) Validate() error {
	if c.tag == nil {
		return errors.Wrap(errors.ErrEmpty, "missing tag")
	}
	return nil
}

func (c *taggedCounter) Copy() CloneableData {
	return &taggedCounter{
		count: c.count,
		tag:   &Counter{Count: c.tag.Count},
	}
}

func TestSimpleObjCloneIsFreshValue(t *testing.T) {
	obj := NewSimpleObj([]byte("one"), &taggedCounter{count: 5, tag: &Counter{Count: 8}})

	clone := obj.Clone()
	assert.Equal(t, []byte("one"), clone.Key())

	// The clone starts from a zero value, it does not share state with
	// the source object.
	got := clone.Value().(*taggedCounter)
	assert.Equal(t, int64(0), got.count)
	assert.Nil(t, got.tag)
}

func TestBucketGetClonesZeroValueTemplate(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("tagged", NewSimpleObj(nil, &taggedCounter{}))

	obj := NewSimpleObj([]byte("one"), &taggedCounter{count: 5, tag: &Counter{Count: 8}})
	require.NoError(t, b.Save(db, obj))

	// Loading clones the bucket template, which is a zero value with a
	// nil tag. The clone must not follow that pointer.
	res, err := b.Get(db, []byte("one"))
	require.NoError(t, err)
	require.NotNil(t, res)

	got, ok := res.Value().(*taggedCounter)
	require.True(t, ok)
	assert.Equal(t, int64(5), got.count)
	require.NotNil(t, got.tag)
	assert.Equal(t, int64(8), got.tag.Count)
}
