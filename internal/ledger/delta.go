package ledger

import "github.com/mifaly/new-ae-server/internal/constants"

// Quantities 维度 -> 键 -> 数量 的嵌套计数，
// 既用于 can-book 剩余量快照，也用于累计销量。
type Quantities map[string]map[string]int64

// Dimensions can-book 计数的三个统计维度
var Dimensions = []string{
	constants.DimensionColor,
	constants.DimensionSize,
	constants.DimensionDetail,
}

// ClampFor 各维度可信销量的钳制上限：
// 颜色/尺码是聚合维度，单日销量可以更大；sku 明细维度更细，上限更低。
func ClampFor(dimension string) int64 {
	if dimension == constants.DimensionDetail {
		return constants.DeltaClampDetail
	}
	return constants.DeltaClampCoarse
}

// TrustedDeltas 由前后两次剩余量计算本期可信销量。
// 剩余量由外部采集器提供，会出现补货、错数、活动清零等噪声，
// 因此每个键的差值都被钳制到 [0, clampMax]；
// 新出现的键无法推断销量，记 0。
func TrustedDeltas(previous, current map[string]int64, clampMax int64) map[string]int64 {
	deltas := make(map[string]int64, len(current))
	for key, remaining := range current {
		before, seen := previous[key]
		if !seen {
			deltas[key] = 0
			continue
		}
		delta := before - remaining
		if delta < 0 {
			delta = 0
		} else if delta > clampMax {
			delta = clampMax
		}
		deltas[key] = delta
	}
	return deltas
}

// Zeroed 返回一个同构的全零计数（新建实体的累计销量起点）
func (q Quantities) Zeroed() Quantities {
	zeroed := make(Quantities, len(q))
	for dimension, counts := range q {
		zeroed[dimension] = make(map[string]int64, len(counts))
		for key := range counts {
			zeroed[dimension][key] = 0
		}
	}
	return zeroed
}

// Accumulate 把一个维度的本期销量累加进累计计数，未见过的键直接并入
func (q Quantities) Accumulate(dimension string, deltas map[string]int64) {
	if q[dimension] == nil {
		q[dimension] = make(map[string]int64, len(deltas))
	}
	for key, delta := range deltas {
		q[dimension][key] += delta
	}
}

// Dimension 取某一维度的键值计数，缺失维度返回 nil
func (q Quantities) Dimension(dimension string) map[string]int64 {
	return q[dimension]
}

// Clone 深拷贝
func (q Quantities) Clone() Quantities {
	if q == nil {
		return nil
	}
	cloned := make(Quantities, len(q))
	for dimension, counts := range q {
		cloned[dimension] = make(map[string]int64, len(counts))
		for key, count := range counts {
			cloned[dimension][key] = count
		}
	}
	return cloned
}
