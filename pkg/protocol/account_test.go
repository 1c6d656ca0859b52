package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/toy-chat-clients/pkg/protocol"
)

func TestDecodeAccount(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *protocol.Account
		wantErr error
	}{
		{
			name: "null means unknown token",
			line: "null\n",
			want: nil,
		},
		{
			name: "account object",
			line: `{"nickname":"alice","account_hash":"T1"}` + "\n",
			want: &protocol.Account{Nickname: "alice", Hash: "T1"},
		},
		{
			name: "object without hash is still a success",
			line: `{"ok":true}` + "\n",
			want: &protocol.Account{},
		},
		{
			name:    "empty line",
			line:    "\n",
			wantErr: protocol.ErrMalformed,
		},
		{
			name:    "not json",
			line:    "Welcome!\n",
			wantErr: protocol.ErrMalformed,
		},
		{
			name:    "json string",
			line:    `"T1"` + "\n",
			wantErr: protocol.ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.DecodeAccount([]byte(tt.line))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRegistration(t *testing.T) {
	account, err := protocol.DecodeRegistration([]byte(`{"account_hash":"T1"}` + "\n"))
	require.NoError(t, err)
	assert.Equal(t, "T1", account.Hash)

	_, err = protocol.DecodeRegistration([]byte("null\n"))
	assert.ErrorIs(t, err, protocol.ErrMalformed)

	_, err = protocol.DecodeRegistration([]byte(`{"nickname":"alice"}` + "\n"))
	assert.ErrorIs(t, err, protocol.ErrMalformed)

	_, err = protocol.DecodeRegistration([]byte(`{"account_hash":42}` + "\n"))
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}

func TestEncodeAccount(t *testing.T) {
	data, err := protocol.EncodeAccount(protocol.Account{Nickname: "alice", Hash: "T1"})
	require.NoError(t, err)

	assert.Equal(t, byte('\n'), data[len(data)-1])
	assert.NotContains(t, string(data[:len(data)-1]), "\n")

	got, err := protocol.DecodeRegistration(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.Account{Nickname: "alice", Hash: "T1"}, got)
}

func TestEncodeNull(t *testing.T) {
	data := protocol.EncodeNull()
	assert.Equal(t, "null\n", string(data))

	got, err := protocol.DecodeAccount(data)
	require.NoError(t, err)
	assert.Nil(t, got)
}
