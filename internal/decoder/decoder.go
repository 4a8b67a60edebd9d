package decoder

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
)

//go:embed abi/moderation.json
var moderationABI []byte

// ErrUnrecognized is returned for logs that are not protocol events: an unknown
// emitting address, or a topic0 the emitting contract does not declare.
var ErrUnrecognized = errors.New("unrecognized log")

// MalformedError reports a log whose topic0 is known but whose topics or data
// could not be decoded into the event.
type MalformedError struct {
	Event  string
	TxHash common.Hash
	Index  uint
	Err    error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s log (tx %s, index %d): %v", e.Event, e.TxHash.Hex(), e.Index, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// contractEvents lists the events each contract kind emits.
var contractEvents = map[string][]string{
	config.ContractContentRegistry: {EventContentPublished, EventContentChallenged, EventChallengeResolved},
	config.ContractModerationGame:  {EventDisputeInitialized, EventDisputeResolved},
	config.ContractStakingVault:    {EventDeposited, EventWithdrawn, EventSlashed},
	config.ContractStakingRewards:  {EventRewardClaimed},
}

// AddressBook maps a deployed contract address to its contract kind.
type AddressBook map[common.Address]string

// NewAddressBook builds an AddressBook from the configured contracts.
func NewAddressBook(contracts config.ContractsConfig) AddressBook {
	book := make(AddressBook)
	for _, c := range contracts.Configured() {
		book[common.HexToAddress(c.Address)] = c.Name
	}
	return book
}

// Kind returns the contract kind deployed at addr.
func (b AddressBook) Kind(addr common.Address) (string, bool) {
	kind, ok := b[addr]
	return kind, ok
}

// Decoder turns raw logs into typed events.
type Decoder struct {
	book   AddressBook
	events map[string]map[common.Hash]abi.Event
}

// New creates a Decoder for the contracts in book.
func New(book AddressBook) (*Decoder, error) {
	parsed, err := abi.JSON(bytes.NewReader(moderationABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	events := make(map[string]map[common.Hash]abi.Event, len(contractEvents))
	for kind, names := range contractEvents {
		byTopic := make(map[common.Hash]abi.Event, len(names))
		for _, name := range names {
			ev, ok := parsed.Events[name]
			if !ok {
				return nil, fmt.Errorf("event %s missing from contract ABI", name)
			}
			byTopic[ev.ID] = ev
		}
		events[kind] = byTopic
	}

	return &Decoder{book: book, events: events}, nil
}

// Contract returns the contract kind deployed at addr.
func (d *Decoder) Contract(addr common.Address) (string, bool) {
	return d.book.Kind(addr)
}

// Topic returns the topic0 of the named event, or false if it is not known.
func (d *Decoder) Topic(name string) (common.Hash, bool) {
	for _, byTopic := range d.events {
		for topic, ev := range byTopic {
			if ev.Name == name {
				return topic, true
			}
		}
	}
	return common.Hash{}, false
}

// Decode decodes a raw log. It returns ErrUnrecognized for logs outside the
// protocol and a *MalformedError for protocol logs that fail to parse.
func (d *Decoder) Decode(l types.Log) (Event, error) {
	kind, ok := d.book.Kind(l.Address)
	if !ok || len(l.Topics) == 0 {
		UnrecognizedInc()
		return nil, ErrUnrecognized
	}

	ev, ok := d.events[kind][l.Topics[0]]
	if !ok {
		UnrecognizedInc()
		return nil, ErrUnrecognized
	}

	decoded, err := decodeEvent(ev, l)
	if err != nil {
		MalformedInc(ev.Name)
		return nil, &MalformedError{Event: ev.Name, TxHash: l.TxHash, Index: l.Index, Err: err}
	}

	DecodedInc(ev.Name)
	return decoded, nil
}

func decodeEvent(ev abi.Event, l types.Log) (Event, error) {
	var indexed abi.Arguments
	for _, input := range ev.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}

	fields := make(map[string]interface{}, len(ev.Inputs))
	if err := abi.ParseTopicsIntoMap(fields, indexed, l.Topics[1:]); err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	if err := ev.Inputs.UnpackIntoMap(fields, l.Data); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}

	f := fieldReader{fields: fields}

	var out Event
	switch ev.Name {
	case EventContentPublished:
		out = ContentPublished{
			ContentID:   f.id("contentId"),
			Author:      f.address("author"),
			ContentHash: f.hash("contentHash"),
			Bond:        f.bigInt("bond"),
			PublishedAt: f.u64("publishedAt"),
			LockUntil:   f.u64("lockUntil"),
		}
	case EventContentChallenged:
		out = ContentChallenged{
			ContentID:  f.id("contentId"),
			Challenger: f.address("challenger"),
			Reason:     f.u8("reason"),
			Evidence:   f.text("evidence"),
			Bond:       f.bigInt("bond"),
		}
	case EventChallengeResolved:
		out = ChallengeResolved{
			ContentID:     f.id("contentId"),
			Guilty:        f.flag("guilty"),
			SlashedAmount: f.bigInt("slashedAmount"),
		}
	case EventDisputeInitialized:
		out = DisputeInitialized{
			DisputeID:  f.id("disputeId"),
			ContentID:  f.id("contentId"),
			Challenger: f.address("challenger"),
		}
	case EventDisputeResolved:
		out = DisputeResolved{
			DisputeID:      f.id("disputeId"),
			Guilty:         f.flag("guilty"),
			GuiltyVotes:    f.bigInt("guiltyVotes"),
			NotGuiltyVotes: f.bigInt("notGuiltyVotes"),
		}
	case EventDeposited:
		out = Deposited{User: f.address("user"), Amount: f.bigInt("amount")}
	case EventWithdrawn:
		out = Withdrawn{User: f.address("user"), Amount: f.bigInt("amount")}
	case EventSlashed:
		out = Slashed{User: f.address("user"), Amount: f.bigInt("amount"), Reason: f.u8("reason")}
	case EventRewardClaimed:
		out = RewardClaimed{User: f.address("user"), Amount: f.bigInt("amount")}
	default:
		return nil, fmt.Errorf("no decoder for event %s", ev.Name)
	}

	if f.err != nil {
		return nil, f.err
	}
	return out, nil
}

// fieldReader pulls typed values out of an unpacked field map and keeps the
// first conversion error.
type fieldReader struct {
	fields map[string]interface{}
	err    error
}

func (f *fieldReader) fail(name, format string, args ...interface{}) {
	if f.err == nil {
		f.err = fmt.Errorf("field %s: %s", name, fmt.Sprintf(format, args...))
	}
}

func (f *fieldReader) bigInt(name string) *big.Int {
	v, ok := f.fields[name].(*big.Int)
	if !ok || v == nil {
		f.fail(name, "expected uint256, got %T", f.fields[name])
		return new(big.Int)
	}
	return v
}

// id reads a uint256 identifier that must fit in a signed 64-bit integer.
func (f *fieldReader) id(name string) uint64 {
	v := f.bigInt(name)
	if !v.IsInt64() || v.Sign() < 0 {
		f.fail(name, "identifier %s out of range", v)
		return 0
	}
	return v.Uint64()
}

func (f *fieldReader) u64(name string) uint64 {
	v := f.bigInt(name)
	if !v.IsUint64() {
		f.fail(name, "value %s does not fit in 64 bits", v)
		return 0
	}
	return v.Uint64()
}

func (f *fieldReader) u8(name string) uint8 {
	v, ok := f.fields[name].(uint8)
	if !ok {
		f.fail(name, "expected uint8, got %T", f.fields[name])
	}
	return v
}

func (f *fieldReader) flag(name string) bool {
	v, ok := f.fields[name].(bool)
	if !ok {
		f.fail(name, "expected bool, got %T", f.fields[name])
	}
	return v
}

func (f *fieldReader) text(name string) string {
	v, ok := f.fields[name].(string)
	if !ok {
		f.fail(name, "expected string, got %T", f.fields[name])
	}
	return v
}

func (f *fieldReader) address(name string) common.Address {
	v, ok := f.fields[name].(common.Address)
	if !ok {
		f.fail(name, "expected address, got %T", f.fields[name])
	}
	return v
}

func (f *fieldReader) hash(name string) common.Hash {
	v, ok := f.fields[name].([32]byte)
	if !ok {
		f.fail(name, "expected bytes32, got %T", f.fields[name])
	}
	return common.Hash(v)
}
