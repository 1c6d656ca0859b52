package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrMalformed is returned when a structured response line cannot be
// interpreted.
var ErrMalformed = errors.New("malformed response")

const (
	fieldNickname    = "nickname"
	fieldAccountHash = "account_hash"
)

// Account is the structured record the server returns after registration or
// a successful authorisation.
type Account struct {
	Nickname string
	Hash     string
}

// DecodeAccount parses an authorisation response. A JSON null means the
// token is unknown and yields a nil account with a nil error.
func DecodeAccount(line []byte) (*Account, error) {
	value, err := decodeValue(line)
	if err != nil {
		return nil, err
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StructValue:
		return accountFromStruct(kind.StructValue), nil
	default:
		return nil, fmt.Errorf("%w: expected object or null, got %q", ErrMalformed, Trim(line))
	}
}

// DecodeRegistration parses a registration response, which must be an
// object carrying a non-empty account_hash.
func DecodeRegistration(line []byte) (Account, error) {
	account, err := DecodeAccount(line)
	if err != nil {
		return Account{}, err
	}
	if account == nil {
		return Account{}, fmt.Errorf("%w: registration returned null", ErrMalformed)
	}
	if account.Hash == "" {
		return Account{}, fmt.Errorf("%w: missing %s", ErrMalformed, fieldAccountHash)
	}
	return *account, nil
}

// EncodeAccount renders an account as a single JSON line, terminator included.
func EncodeAccount(account Account) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		fieldNickname:    account.Nickname,
		fieldAccountHash: account.Hash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode account: %w", err)
	}
	return marshalLine(structpb.NewStructValue(s))
}

// EncodeNull renders the unknown-token response.
func EncodeNull() []byte {
	data, _ := marshalLine(structpb.NewNullValue())
	return data
}

func decodeValue(line []byte) (*structpb.Value, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrMalformed)
	}

	value := &structpb.Value{}
	if err := protojson.Unmarshal(trimmed, value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return value, nil
}

func marshalLine(value *structpb.Value) ([]byte, error) {
	data, err := protojson.MarshalOptions{Multiline: false}.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return append(data, Terminator), nil
}

// accountFromStruct keeps protobuf types out of the public API.
func accountFromStruct(s *structpb.Struct) *Account {
	fields := s.GetFields()
	return &Account{
		Nickname: fields[fieldNickname].GetStringValue(),
		Hash:     fields[fieldAccountHash].GetStringValue(),
	}
}
