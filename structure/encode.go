package structure

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/structix/errors"
)

// Encoding names a serialization of records.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
	EncodingCBOR Encoding = "cbor"
)

// cborEnc uses Core Deterministic Encoding so the same records always
// produce identical bytes. Struct fields fall back to their json tags.
var cborEnc = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("structure: CBOR encoder initialization failed: " + err.Error())
	}
	return mode
}()

// ParseEncoding accepts "json", "yaml"/"yml" and "cbor".
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return EncodingJSON, nil
	case "yaml", "yml":
		return EncodingYAML, nil
	case "cbor":
		return EncodingCBOR, nil
	}
	return "", errors.NewInvalidRequestError("unknown encoding %q (want json, yaml or cbor)", s)
}

// Encode writes records to w as a single document (a list of records).
func Encode(w io.Writer, enc Encoding, records []*Record) error {
	switch enc {
	case EncodingJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return errors.Wrap(e.Encode(records), "encode json")
	case EncodingYAML:
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(records); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return errors.Wrap(e.Close(), "encode yaml")
	case EncodingCBOR:
		data, err := cborEnc.Marshal(records)
		if err != nil {
			return errors.Wrap(err, "encode cbor")
		}
		_, err = w.Write(data)
		return errors.Wrap(err, "write cbor")
	}
	return errors.NewInvalidRequestError("unknown encoding %q", enc)
}

// DecodeCBOR reads records written by Encode with EncodingCBOR.
func DecodeCBOR(data []byte) ([]*Record, error) {
	var records []*Record
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "decode cbor")
	}
	return records, nil
}
