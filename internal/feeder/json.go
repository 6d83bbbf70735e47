package feeder

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadJSON reads a JSON file containing an array of objects. Values of any
// scalar type are converted to their string form.
func LoadJSON(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open JSON file: %w", err)
	}
	defer file.Close()

	var raw []map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for i, obj := range raw {
		if len(obj) == 0 {
			return nil, fmt.Errorf("record %d is empty", i)
		}
		record := make(Record, len(obj))
		for key, value := range obj {
			record[key] = fmt.Sprintf("%v", value)
		}
		records = append(records, record)
	}
	return NewDataset(records)
}
