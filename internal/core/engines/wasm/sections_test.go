package wasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSections(t *testing.T) {
	cases := [][][]byte{
		{[]byte("key"), []byte("value")},
		{{}, {}},
		{[]byte("only")},
		{[]byte("a"), {}, []byte("ccc")},
	}
	for _, sections := range cases {
		encoded := encodeSections(sections...)
		decoded, err := decodeSections(encoded)
		require.NoError(t, err)
		require.Len(t, decoded, len(sections))
		for i := range sections {
			assert.Equal(t, []byte(sections[i]), decoded[i])
		}
	}
}

func TestEncodeSectionsLayout(t *testing.T) {
	// 数据在前，大端长度在后
	encoded := encodeSections([]byte("ab"))
	assert.Equal(t, []byte{'a', 'b', 0, 0, 0, 2}, encoded)
}

func TestDecodeSectionsMalformed(t *testing.T) {
	_, err := decodeSections([]byte{0, 0})
	assert.Error(t, err, "不足一个长度字段")

	_, err = decodeSections([]byte{0, 0, 0, 9})
	assert.Error(t, err, "长度超出剩余数据")
}

func TestParseContractResult(t *testing.T) {
	resp, err := parseContractResult([]byte(`{"ok":{"attributes":[{"key":"action","value":"init"}],"messages":[]}}`))
	require.NoError(t, err)
	require.Len(t, resp.Attributes, 1)
	assert.Equal(t, "action", resp.Attributes[0].Key)

	_, err = parseContractResult([]byte(`{"error":"insufficient funds"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")

	_, err = parseContractResult([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseQueryData(t *testing.T) {
	// ok分支为base64编码的二进制负载
	data, err := parseQueryData([]byte(`{"ok":"eyJwcmljZSI6IjQyIn0="}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"42"}`, string(data))

	_, err = parseQueryData([]byte(`{"error":"unknown variant"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variant")
}

func TestEd25519VerifyInputChecks(t *testing.T) {
	assert.Equal(t, cryptoInvalidSig, ed25519Verify([]byte("m"), make([]byte, 10), make([]byte, 32)))
	assert.Equal(t, cryptoInvalidPubkey, ed25519Verify([]byte("m"), make([]byte, 64), make([]byte, 10)))
	assert.Equal(t, cryptoVerifyFailed, ed25519Verify([]byte("m"), make([]byte, 64), make([]byte, 32)))
}
