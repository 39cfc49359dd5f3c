package simulation

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/adam-goose/fyp/pkg/behavior"
)

// The flock.v1 protocol spoken with the FlockActor.
//
//	message Tick         { uint32 steps = 1; }
//	message Reset        { uint32 num_agents = 1; }
//	message UpdateConfig { bytes config_json = 1; }
//	message Override     { repeated uint32 indices = 1; repeated double positions = 2; repeated double directions = 3; bool all = 4; }
//	message GetSnapshot  {}
//	message Snapshot     { uint64 tick = 1; uint64 epoch = 2; repeated double positions = 3; repeated double directions = 4; repeated double speeds = 5; }
//	message Ack          { bool ok = 1; string error = 2; }
//
// The descriptors are built at init and the messages are dynamicpb values.
const protoPackage = "flock.v1"

const (
	TickMessage         protoreflect.FullName = protoPackage + ".Tick"
	ResetMessage        protoreflect.FullName = protoPackage + ".Reset"
	UpdateConfigMessage protoreflect.FullName = protoPackage + ".UpdateConfig"
	OverrideMessage     protoreflect.FullName = protoPackage + ".Override"
	GetSnapshotMessage  protoreflect.FullName = protoPackage + ".GetSnapshot"
	SnapshotMessage     protoreflect.FullName = protoPackage + ".Snapshot"
	AckMessage          protoreflect.FullName = protoPackage + ".Ack"
)

// ErrUnknownMessage is returned when a message is not part of flock.v1.
var ErrUnknownMessage = errors.New("unknown message")

var (
	tickDesc         protoreflect.MessageDescriptor
	resetDesc        protoreflect.MessageDescriptor
	updateConfigDesc protoreflect.MessageDescriptor
	overrideDesc     protoreflect.MessageDescriptor
	getSnapshotDesc  protoreflect.MessageDescriptor
	snapshotDesc     protoreflect.MessageDescriptor
	ackDesc          protoreflect.MessageDescriptor
)

type fieldSpec struct {
	name     string
	kind     descriptorpb.FieldDescriptorProto_Type
	repeated bool
}

func messageProto(name string, fields ...fieldSpec) *descriptorpb.DescriptorProto {
	m := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for i, f := range fields {
		label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		if f.repeated {
			label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
		}
		m.Field = append(m.Field, &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(f.name),
			Number: proto.Int32(int32(i + 1)),
			Label:  label.Enum(),
			Type:   f.kind.Enum(),
		})
	}
	return m
}

func buildFileDescriptor() (protoreflect.FileDescriptor, error) {
	const (
		u32   = descriptorpb.FieldDescriptorProto_TYPE_UINT32
		u64   = descriptorpb.FieldDescriptorProto_TYPE_UINT64
		f64   = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
		bytes = descriptorpb.FieldDescriptorProto_TYPE_BYTES
		str   = descriptorpb.FieldDescriptorProto_TYPE_STRING
		boolT = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	)
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("flock/v1/flock.proto"),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			messageProto("Tick", fieldSpec{"steps", u32, false}),
			messageProto("Reset", fieldSpec{"num_agents", u32, false}),
			messageProto("UpdateConfig", fieldSpec{"config_json", bytes, false}),
			messageProto("Override",
				fieldSpec{"indices", u32, true},
				fieldSpec{"positions", f64, true},
				fieldSpec{"directions", f64, true},
				fieldSpec{"all", boolT, false}),
			messageProto("GetSnapshot"),
			messageProto("Snapshot",
				fieldSpec{"tick", u64, false},
				fieldSpec{"epoch", u64, false},
				fieldSpec{"positions", f64, true},
				fieldSpec{"directions", f64, true},
				fieldSpec{"speeds", f64, true}),
			messageProto("Ack",
				fieldSpec{"ok", boolT, false},
				fieldSpec{"error", str, false}),
		},
	}
	return protodesc.NewFile(fdp, nil)
}

func init() {
	fd, err := buildFileDescriptor()
	if err != nil {
		panic(fmt.Sprintf("flock.v1 descriptor: %v", err))
	}
	msgs := fd.Messages()
	tickDesc = msgs.ByName("Tick")
	resetDesc = msgs.ByName("Reset")
	updateConfigDesc = msgs.ByName("UpdateConfig")
	overrideDesc = msgs.ByName("Override")
	getSnapshotDesc = msgs.ByName("GetSnapshot")
	snapshotDesc = msgs.ByName("Snapshot")
	ackDesc = msgs.ByName("Ack")

	// Registration lets anypb and the text/json codecs resolve the messages by name.
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("register flock.v1: %v", err))
	}
	for i := 0; i < msgs.Len(); i++ {
		if err := protoregistry.GlobalTypes.RegisterMessage(dynamicpb.NewMessageType(msgs.Get(i))); err != nil {
			panic(fmt.Sprintf("register %s: %v", msgs.Get(i).FullName(), err))
		}
	}
}

// ---------------------------------------------------------------------
// field helpers
// ---------------------------------------------------------------------

func setUint(m *dynamicpb.Message, name protoreflect.Name, v uint64) {
	fd := m.Descriptor().Fields().ByName(name)
	if fd.Kind() == protoreflect.Uint32Kind {
		m.Set(fd, protoreflect.ValueOfUint32(uint32(v)))
		return
	}
	m.Set(fd, protoreflect.ValueOfUint64(v))
}

func getUint(m protoreflect.Message, name protoreflect.Name) uint64 {
	return m.Get(m.Descriptor().Fields().ByName(name)).Uint()
}

func setDoubles(m *dynamicpb.Message, name protoreflect.Name, values []float64) {
	if len(values) == 0 {
		return
	}
	l := m.Mutable(m.Descriptor().Fields().ByName(name)).List()
	for _, v := range values {
		l.Append(protoreflect.ValueOfFloat64(v))
	}
}

func getDoubles(m protoreflect.Message, name protoreflect.Name) []float64 {
	l := m.Get(m.Descriptor().Fields().ByName(name)).List()
	out := make([]float64, l.Len())
	for i := range out {
		out[i] = l.Get(i).Float()
	}
	return out
}

func getUints(m protoreflect.Message, name protoreflect.Name) []uint32 {
	l := m.Get(m.Descriptor().Fields().ByName(name)).List()
	out := make([]uint32, l.Len())
	for i := range out {
		out[i] = uint32(l.Get(i).Uint())
	}
	return out
}

// expect checks that msg is a flock.v1 message with the given name.
func expect(msg proto.Message, name protoreflect.FullName) (protoreflect.Message, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil, want %s", ErrUnknownMessage, name)
	}
	m := msg.ProtoReflect()
	if got := m.Descriptor().FullName(); got != name {
		return nil, fmt.Errorf("%w: %s, want %s", ErrUnknownMessage, got, name)
	}
	return m, nil
}

// ---------------------------------------------------------------------
// constructors and accessors
// ---------------------------------------------------------------------

// NewTick asks the actor to advance the flock by steps ticks; 0 means one.
func NewTick(steps uint32) proto.Message {
	m := dynamicpb.NewMessage(tickDesc)
	setUint(m, "steps", uint64(steps))
	return m
}

// NewReset respawns the flock with numAgents agents; 0 uses the configured count.
func NewReset(numAgents uint32) proto.Message {
	m := dynamicpb.NewMessage(resetDesc)
	setUint(m, "num_agents", uint64(numAgents))
	return m
}

// NewUpdateConfig carries a JSON configuration document.
func NewUpdateConfig(configJSON []byte) proto.Message {
	m := dynamicpb.NewMessage(updateConfigDesc)
	m.Set(updateConfigDesc.Fields().ByName("config_json"), protoreflect.ValueOfBytes(configJSON))
	return m
}

// NewOverride carries playback state. Positions and directions hold three values per index.
// A nil indices slice addresses every agent in order; an empty one addresses none.
func NewOverride(indices []uint32, positions, directions []float64) proto.Message {
	m := dynamicpb.NewMessage(overrideDesc)
	if indices == nil {
		m.Set(overrideDesc.Fields().ByName("all"), protoreflect.ValueOfBool(true))
	} else if len(indices) > 0 {
		l := m.Mutable(overrideDesc.Fields().ByName("indices")).List()
		for _, i := range indices {
			l.Append(protoreflect.ValueOfUint32(i))
		}
	}
	setDoubles(m, "positions", positions)
	setDoubles(m, "directions", directions)
	return m
}

// NewGetSnapshot asks for the current flock state.
func NewGetSnapshot() proto.Message {
	return dynamicpb.NewMessage(getSnapshotDesc)
}

// NewSnapshot encodes a flock snapshot.
func NewSnapshot(s behavior.Snapshot) proto.Message {
	m := dynamicpb.NewMessage(snapshotDesc)
	setUint(m, "tick", s.Tick)
	setUint(m, "epoch", s.Epoch)
	setDoubles(m, "positions", s.Positions)
	setDoubles(m, "directions", s.Directions)
	setDoubles(m, "speeds", s.Speeds)
	return m
}

// SnapshotFromMessage decodes a Snapshot message.
func SnapshotFromMessage(msg proto.Message) (behavior.Snapshot, error) {
	m, err := expect(msg, SnapshotMessage)
	if err != nil {
		return behavior.Snapshot{}, err
	}
	s := behavior.Snapshot{
		Tick:       getUint(m, "tick"),
		Epoch:      getUint(m, "epoch"),
		Positions:  getDoubles(m, "positions"),
		Directions: getDoubles(m, "directions"),
		Speeds:     getDoubles(m, "speeds"),
	}
	if len(s.Positions) != 3*len(s.Speeds) || len(s.Directions) != 3*len(s.Speeds) {
		return behavior.Snapshot{}, fmt.Errorf("snapshot arrays disagree: %d positions, %d directions, %d speeds",
			len(s.Positions), len(s.Directions), len(s.Speeds))
	}
	return s, nil
}

// NewAck reports the outcome of a command; a nil err is a success.
func NewAck(err error) proto.Message {
	m := dynamicpb.NewMessage(ackDesc)
	m.Set(ackDesc.Fields().ByName("ok"), protoreflect.ValueOfBool(err == nil))
	if err != nil {
		m.Set(ackDesc.Fields().ByName("error"), protoreflect.ValueOfString(err.Error()))
	}
	return m
}

// AckError turns an Ack back into an error, nil on success.
func AckError(msg proto.Message) error {
	m, err := expect(msg, AckMessage)
	if err != nil {
		return err
	}
	if m.Get(ackDesc.Fields().ByName("ok")).Bool() {
		return nil
	}
	return errors.New(m.Get(ackDesc.Fields().ByName("error")).String())
}

// overrideArgs unpacks an Override message into flock override arguments.
// indices is nil only when the message addresses every agent.
func overrideArgs(m protoreflect.Message) (indices []int, positions, directions []float64) {
	if !m.Get(overrideDesc.Fields().ByName("all")).Bool() {
		raw := getUints(m, "indices")
		indices = make([]int, len(raw))
		for i, v := range raw {
			indices[i] = int(v)
		}
	}
	return indices, getDoubles(m, "positions"), getDoubles(m, "directions")
}
