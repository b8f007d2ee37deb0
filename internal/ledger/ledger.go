// Package ledger 实现挂在单个实体上的有界按天销量台账，
// 以及把不可靠的剩余量计数转成可信销量的钳制过滤。
package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/mifaly/new-ae-server/internal/constants"
)

// DateLayout 台账样本的日期格式
const DateLayout = "2006-01-02"

// DaySample 一天的销量样本
type DaySample struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// OfferLedger offer 侧销量台账：样本按时间倒序（最新在前），
// 另带上一次被采纳的 can-book 剩余量快照，作为下次差分的基准。
type OfferLedger struct {
	Samples  []DaySample `json:"samples"`
	Snapshot Quantities  `json:"snapshot"`
}

// AppendOrMerge 记入某天的销量：同一天重复记入时覆盖当天样本，
// 否则头插新样本并从尾部裁剪到容量上限。
func (l *OfferLedger) AppendOrMerge(date string, count int64) {
	if len(l.Samples) > 0 && l.Samples[0].Date == date {
		l.Samples[0].Count = count
		return
	}
	l.Samples = append([]DaySample{{Date: date, Count: count}}, l.Samples...)
	if len(l.Samples) > constants.LedgerMaxSamples {
		l.Samples = l.Samples[:constants.LedgerMaxSamples]
	}
}

// SampledToday 判断最新样本是否就是给定日期（同日重复采集的判据）
func (l *OfferLedger) SampledToday(date string) bool {
	return len(l.Samples) > 0 && l.Samples[0].Date == date
}

// RollingSum 最近 window 个样本的销量之和。
// 样本不足 window 个时退化为全量求和，此时结果不再是严格的 N 日销量。
func (l *OfferLedger) RollingSum(window int) int64 {
	return sumRecent(l.Samples, window)
}

func sumRecent(samples []DaySample, window int) int64 {
	if window > len(samples) {
		window = len(samples)
	}
	var sum int64
	for _, s := range samples[:window] {
		sum += s.Count
	}
	return sum
}

// Value 实现 driver.Valuer，整个台账序列化为一个 JSON 列
func (l OfferLedger) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner
func (l *OfferLedger) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// TrafficSample product 侧一天的访客/成交样本
type TrafficSample struct {
	Date string `json:"date"`
	UV   int64  `json:"uv"`
	Sale int64  `json:"sale"`
}

// ProductLedger product 侧按天流量台账，最新样本在前
type ProductLedger []TrafficSample

// AppendOrMerge 记入某天的样本：同日重复记入覆盖，否则头插并裁剪
func (l *ProductLedger) AppendOrMerge(sample TrafficSample) {
	if len(*l) > 0 && (*l)[0].Date == sample.Date {
		(*l)[0] = sample
		return
	}
	*l = append(ProductLedger{sample}, *l...)
	if len(*l) > constants.LedgerMaxSamples {
		*l = (*l)[:constants.LedgerMaxSamples]
	}
}

// Rolling30 最近 30 个样本的访客数与成交数之和（不足 30 时为全量和）
func (l ProductLedger) Rolling30() (uv int64, sale int64) {
	window := constants.SaleWindow30
	if window > len(l) {
		window = len(l)
	}
	for _, s := range l[:window] {
		uv += s.UV
		sale += s.Sale
	}
	return uv, sale
}

// Value 实现 driver.Valuer
func (l ProductLedger) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(ProductLedger{})
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner
func (l *ProductLedger) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Today 以台账日期格式输出给定时间的日期部分
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New("ledger: unsupported column type")
	}
}
