package format

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding: sorted map keys and shortest
// integer forms, so the same payload always produces the same bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("format: CBOR encoder initialization failed: " + err.Error())
	}
}

// WriteCBOR writes v as one CBOR item. With pretty, the item is written in
// diagnostic notation followed by a newline.
func WriteCBOR(w io.Writer, v any, pretty bool) error {
	x, err := plain(v)
	if err != nil {
		return err
	}
	b, err := encMode.Marshal(integral(x))
	if err != nil {
		return err
	}
	if !pretty {
		_, err = w.Write(b)
		return err
	}
	notation, err := cbor.Diagnose(b)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, notation)
	return err
}

// integral turns whole JSON numbers back into integers so counts and
// revisions encode as CBOR integers rather than floats.
func integral(v any) any {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	case []any:
		for i := range t {
			t[i] = integral(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = integral(t[k])
		}
		return t
	default:
		return v
	}
}
