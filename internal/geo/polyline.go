package geo

import "math"

// DecodePolyline decodes a Google polyline (precision 5) into a path.
// This is the geometry format returned by the routing provider.
func DecodePolyline(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}

	var path []Coordinate
	var lat, lon int
	i := 0
	for i < len(encoded) {
		dLat, next := decodeChunk(encoded, i)
		i = next
		lat += dLat

		dLon, next := decodeChunk(encoded, i)
		i = next
		lon += dLon

		path = append(path, Coordinate{
			Lat: float64(lat) / 1e5,
			Lon: float64(lon) / 1e5,
		})
	}
	return path
}

// decodeChunk reads one varint-encoded delta starting at i and returns the
// delta plus the next read position.
func decodeChunk(encoded string, i int) (int, int) {
	result := 0
	shift := 0
	for i < len(encoded) {
		b := int(encoded[i]) - 63
		i++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i
	}
	return result >> 1, i
}

// EncodePolyline encodes a path as a Google polyline (precision 5).
func EncodePolyline(path []Coordinate) string {
	if len(path) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(path)*4)
	var prevLat, prevLon int
	for _, c := range path {
		lat := int(math.Round(c.Lat * 1e5))
		lon := int(math.Round(c.Lon * 1e5))
		buf = encodeChunk(buf, lat-prevLat)
		buf = encodeChunk(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(buf)
}

func encodeChunk(buf []byte, v int) []byte {
	if v < 0 {
		v = ^(v << 1)
	} else {
		v <<= 1
	}
	for v >= 0x20 {
		buf = append(buf, byte((v&0x1f)|0x20)+63)
		v >>= 5
	}
	return append(buf, byte(v)+63)
}
