package parked

import (
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
)

// Record encoding: varint headerLen | header | payload | crc32c(header|payload).
// The header is 8 bytes of big-endian published-at ms followed by user
// headers as JSON (omitted when empty).

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeHeader(publishedAtMs int64, headers map[string]string) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, uint64(publishedAtMs))
	if len(headers) > 0 {
		if hb, err := json.Marshal(headers); err == nil {
			out = append(out, hb...)
		}
	}
	return out
}

func decodeHeader(h []byte) (publishedAtMs int64, headers map[string]string) {
	if len(h) >= 8 {
		publishedAtMs = int64(binary.BigEndian.Uint64(h[:8]))
	}
	if len(h) > 8 {
		var hm map[string]string
		if err := json.Unmarshal(h[8:], &hm); err == nil {
			headers = hm
		}
	}
	return publishedAtMs, headers
}

func encodeRecord(header, payload []byte) []byte {
	out := make([]byte, 0, 10+len(header)+len(payload)+4)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(header)))
	out = append(out, tmp[:n]...)
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	out = append(out, crcb[:]...)
	return out
}

func decodeRecord(b []byte) (header, payload []byte, ok bool) {
	if len(b) < 1+4 {
		return nil, nil, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || n+int(hlen)+4 > len(b) {
		return nil, nil, false
	}
	header = b[n : n+int(hlen)]
	payload = b[n+int(hlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return nil, nil, false
	}
	return append([]byte(nil), header...), append([]byte(nil), payload...), true
}
