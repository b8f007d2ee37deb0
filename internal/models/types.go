package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// QuantityMap 两级数量映射（维度/主键 -> 子键 -> 数量），
// 用于 offer 的累计销量和 product 的库存、销量明细，存储为 JSON
type QuantityMap map[string]map[string]int64

// Value 实现 driver.Valuer 接口
func (m QuantityMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner 接口
func (m *QuantityMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(QuantityMap)
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported quantity map source: %T", value)
	}
	if len(bytes) == 0 {
		*m = make(QuantityMap)
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Total 所有子键数量之和
func (m QuantityMap) Total() int64 {
	var total int64
	for _, inner := range m {
		for _, count := range inner {
			total += count
		}
	}
	return total
}
