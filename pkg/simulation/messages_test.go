package simulation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/adam-goose/fyp/pkg/behavior"
)

func TestSnapshotMessage_WireRoundTrip(t *testing.T) {
	in := behavior.Snapshot{
		Tick:       12,
		Epoch:      3,
		Positions:  []float64{1, 2, 3, -4, -5, -6},
		Directions: []float64{1, 0, 0, 0, 0, 1},
		Speeds:     []float64{0.5, 2},
	}
	raw, err := proto.Marshal(NewSnapshot(in))
	require.NoError(t, err)

	// decode through the registry, the way a remote peer would
	mt, err := protoregistry.GlobalTypes.FindMessageByName(SnapshotMessage)
	require.NoError(t, err)
	msg := mt.New().Interface()
	require.NoError(t, proto.Unmarshal(raw, msg))

	out, err := SnapshotFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSnapshotFromMessage_Rejects(t *testing.T) {
	_, err := SnapshotFromMessage(NewTick(1))
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = SnapshotFromMessage(nil)
	assert.ErrorIs(t, err, ErrUnknownMessage)

	bad := NewSnapshot(behavior.Snapshot{Positions: []float64{1, 2, 3}, Directions: []float64{1, 0, 0}})
	_, err = SnapshotFromMessage(bad)
	assert.Error(t, err, "positions without speeds")
}

func TestAck(t *testing.T) {
	assert.NoError(t, AckError(NewAck(nil)))

	err := AckError(NewAck(errors.New("boom")))
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())

	assert.ErrorIs(t, AckError(NewGetSnapshot()), ErrUnknownMessage)
}

func TestOverrideArgs(t *testing.T) {
	m := NewOverride([]uint32{4, 1}, []float64{1, 2, 3, 4, 5, 6}, []float64{0, 1, 0, 0, 0, 1})
	indices, pos, dir := overrideArgs(m.ProtoReflect())
	assert.Equal(t, []int{4, 1}, indices)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, pos)
	assert.Equal(t, []float64{0, 1, 0, 0, 0, 1}, dir)

	indices, _, _ = overrideArgs(NewOverride(nil, nil, nil).ProtoReflect())
	assert.Nil(t, indices, "nil indices addresses every agent")

	indices, _, _ = overrideArgs(NewOverride([]uint32{}, nil, nil).ProtoReflect())
	assert.NotNil(t, indices, "an empty subset is not every agent")
	assert.Empty(t, indices)
}

func TestOverride_SubsetSurvivesTheWire(t *testing.T) {
	for _, tt := range []struct {
		name    string
		indices []uint32
		all     bool
	}{
		{"every agent", nil, true},
		{"empty subset", []uint32{}, false},
		{"subset", []uint32{2}, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := proto.Marshal(NewOverride(tt.indices, nil, nil))
			require.NoError(t, err)
			mt, err := protoregistry.GlobalTypes.FindMessageByName(OverrideMessage)
			require.NoError(t, err)
			msg := mt.New().Interface()
			require.NoError(t, proto.Unmarshal(raw, msg))

			indices, _, _ := overrideArgs(msg.ProtoReflect())
			assert.Equal(t, tt.all, indices == nil)
			assert.Len(t, indices, len(tt.indices))
		})
	}
}
