package quote

import (
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/paaavkata/stock-dashboard/pkg/utils"
)

var indexNames = map[string]string{
	"0001": "코스피",
	"1001": "코스닥",
}

// ConvertChangeSign maps the provider's prior-day sign code.
// 1 limit-up, 2 up, 3 flat, 4 limit-down, 5 down.
func ConvertChangeSign(code string) models.ChangeSign {
	switch code {
	case "1", "2":
		return models.ChangeUp
	case "4", "5":
		return models.ChangeDown
	default:
		return models.ChangeUnchanged
	}
}

// FormatDate converts YYYYMMDD to YYYY-MM-DD; other input passes through.
func FormatDate(s string) string {
	return utils.FormatCompactDate(s)
}

// fieldParser keeps the first parse failure so a record can be checked once.
type fieldParser struct {
	err error
}

func (p *fieldParser) int(name, s string) int64 {
	if p.err != nil {
		return 0
	}
	n, err := utils.ParseInt(s)
	if err != nil {
		p.err = fmt.Errorf("field %s: %w", name, err)
	}
	return n
}

func (p *fieldParser) float(name, s string) float64 {
	if p.err != nil {
		return 0
	}
	f, err := utils.ParseFloat(s)
	if err != nil {
		p.err = fmt.Errorf("field %s: %w", name, err)
	}
	return f
}

func optionalInt(s string) null.Int {
	n, ok := utils.ParseOptionalInt(s)
	return null.NewInt(n, ok)
}

func optionalFloat(s string) null.Float {
	f, ok := utils.ParseOptionalFloat(s)
	return null.NewFloat(f, ok)
}

func normalizeStockPrice(code, name string, out kis.PriceOutput, now time.Time) (*models.StockPrice, error) {
	var p fieldParser

	if name == "" {
		name = out.BstpKorIsnm
	}
	if name == "" {
		name = code
	}

	price := &models.StockPrice{
		Code:         code,
		Name:         name,
		CurrentPrice: float64(p.int("stck_prpr", out.StckPrpr)),
		ChangePrice:  float64(p.int("prdy_vrss", out.PrdyVrss)),
		ChangeRate:   p.float("prdy_ctrt", out.PrdyCtrt),
		ChangeSign:   ConvertChangeSign(out.PrdyVrssSign),
		Volume:       p.int("acml_vol", out.AcmlVol),
		TradeAmount:  p.int("acml_tr_pbmn", out.AcmlTrPbmn),
		Open:         float64(p.int("stck_oprc", out.StckOprc)),
		High:         float64(p.int("stck_hgpr", out.StckHgpr)),
		Low:          float64(p.int("stck_lwpr", out.StckLwpr)),
		PrevClose:    float64(p.int("stck_sdpr", out.StckSdpr)),
		MarketCap:    optionalInt(out.HtsAvls),
		PER:          optionalFloat(out.Per),
		PBR:          optionalFloat(out.Pbr),
		High52w:      optionalInt(out.W52Hgpr),
		Low52w:       optionalInt(out.W52Lwpr),
		Timestamp:    now,
	}
	if p.err != nil {
		return nil, p.err
	}
	return price, nil
}

func normalizeIndexPrice(code, name string, out kis.IndexPriceOutput, now time.Time) (*models.StockPrice, error) {
	var p fieldParser

	if name == "" {
		name = indexNames[code]
	}
	if name == "" {
		name = code
	}

	price := &models.StockPrice{
		Code:         code,
		Name:         name,
		CurrentPrice: p.float("bstp_nmix_prpr", out.BstpNmixPrpr),
		ChangePrice:  p.float("bstp_nmix_prdy_vrss", out.BstpNmixPrdyVrss),
		ChangeRate:   p.float("bstp_nmix_prdy_ctrt", out.BstpNmixPrdyCtrt),
		ChangeSign:   ConvertChangeSign(out.PrdyVrssSign),
		Volume:       p.int("acml_vol", out.AcmlVol),
		TradeAmount:  p.int("acml_tr_pbmn", out.AcmlTrPbmn),
		Open:         p.float("bstp_nmix_oprc", out.BstpNmixOprc),
		High:         p.float("bstp_nmix_hgpr", out.BstpNmixHgpr),
		Low:          p.float("bstp_nmix_lwpr", out.BstpNmixLwpr),
		PrevClose:    0,
		Timestamp:    now,
	}
	if p.err != nil {
		return nil, p.err
	}
	return price, nil
}

func normalizeDailyItem(item kis.DailyPriceItem) (models.DailyPrice, error) {
	var p fieldParser

	bar := models.DailyPrice{
		Date:   FormatDate(item.StckBsopDate),
		Open:   float64(p.int("stck_oprc", item.StckOprc)),
		High:   float64(p.int("stck_hgpr", item.StckHgpr)),
		Low:    float64(p.int("stck_lwpr", item.StckLwpr)),
		Close:  float64(p.int("stck_clpr", item.StckClpr)),
		Volume: p.int("acml_vol", item.AcmlVol),
	}
	if p.err != nil {
		return models.DailyPrice{}, p.err
	}

	bar.ChangeRate = dailyChangeRate(bar.Close, item.PrdyVrss)
	return bar, nil
}

// dailyChangeRate derives the percentage move from the absolute prior-day change.
func dailyChangeRate(close float64, change string) null.Float {
	diff, ok := utils.ParseOptionalFloat(change)
	if !ok {
		return null.Float{}
	}
	prev := close - diff
	if prev == 0 {
		return null.Float{}
	}
	return null.FloatFrom(math.Round(diff/prev*10000) / 100)
}

func normalizeIndexDailyItem(item kis.IndexDailyPriceItem) (models.DailyPrice, error) {
	var p fieldParser

	bar := models.DailyPrice{
		Date:   FormatDate(item.StckBsopDate),
		Open:   p.float("bstp_nmix_oprc", item.BstpNmixOprc),
		High:   p.float("bstp_nmix_hgpr", item.BstpNmixHgpr),
		Low:    p.float("bstp_nmix_lwpr", item.BstpNmixLwpr),
		Close:  p.float("bstp_nmix_prpr", item.BstpNmixPrpr),
		Volume: p.int("acml_vol", item.AcmlVol),
	}
	if p.err != nil {
		return models.DailyPrice{}, p.err
	}
	return bar, nil
}
