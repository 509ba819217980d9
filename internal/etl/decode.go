// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package etl

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

// Encoding names reported by Decode.
const (
	EncodingUTF8  = "utf-8"
	EncodingCP949 = "cp949"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts raw CSV bytes to UTF-8 and reports the detected encoding.
// A UTF-8 BOM is stripped. Input that is not valid UTF-8 is decoded as
// CP949 (EUC-KR superset used by Korean public data portals).
func Decode(raw []byte) ([]byte, string, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		return raw[len(utf8BOM):], EncodingUTF8, nil
	}
	if utf8.Valid(raw) {
		return raw, EncodingUTF8, nil
	}

	decoded, err := korean.EUCKR.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnknownEncoding, err)
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return nil, "", ErrUnknownEncoding
	}
	return decoded, EncodingCP949, nil
}
