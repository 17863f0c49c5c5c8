package encoding

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode writes times as RFC 3339 strings and sorts map keys so the same
// document always produces the same bytes.
var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	mode, err := cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: invalid encoding options: %v", err))
	}
	return mode
}

// MarshalCBOR encodes data to CBOR format
func MarshalCBOR(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// UnmarshalCBOR decodes CBOR data
func UnmarshalCBOR(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}

// WriteCBOR encodes v and writes it to w
func WriteCBOR(w io.Writer, v interface{}) error {
	return encMode.NewEncoder(w).Encode(v)
}
