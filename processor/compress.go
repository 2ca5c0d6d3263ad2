package processor

import (
	"fmt"

	"github.com/golang/snappy"
)

// CompressData сжимает данные алгоритмом Snappy
func CompressData(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// DecompressData распаковывает данные, сжатые CompressData
func DecompressData(data []byte) ([]byte, error) {
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки snappy: %w", err)
	}
	return decompressed, nil
}
