package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrChecksumMismatch контрольная сумма распакованных данных не совпала
var ErrChecksumMismatch = errors.New("контрольная сумма не совпадает")

// PackedPayload сжатые данные вместе с контрольной суммой исходника
type PackedPayload struct {
	Data     []byte
	Checksum string
	Size     int
}

// Checksum возвращает sha256 данных в hex
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Pack объединяет два этапа обработки:
// 1. подсчёт sha256 исходных данных,
// 2. сжатие Snappy (CompressData из compress.go).
func Pack(raw []byte) PackedPayload {
	return PackedPayload{
		Data:     CompressData(raw),
		Checksum: Checksum(raw),
		Size:     len(raw),
	}
}

// Unpack распаковывает данные и сверяет их с ожидаемой контрольной суммой.
// Пустая checksum отключает проверку.
func Unpack(data []byte, checksum string) ([]byte, error) {
	raw, err := DecompressData(data)
	if err != nil {
		return nil, err
	}
	if checksum != "" && Checksum(raw) != checksum {
		return nil, fmt.Errorf("%w: ожидалась %s", ErrChecksumMismatch, checksum)
	}
	return raw, nil
}
