package kis

import (
	"time"
)

const tokenExpiryLayout = "2006-01-02 15:04:05"

type TokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

type TokenResponse struct {
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	ExpiresIn          int64  `json:"expires_in"`
	AccessTokenExpired string `json:"access_token_token_expired"`

	// Error payloads, which may arrive with HTTP 200.
	MsgCode          string `json:"msg_cd,omitempty"`
	Msg              string `json:"msg1,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ExpiresAt resolves the provider declared expiry. The expiry string is in
// market local time; expires_in is the fallback.
func (r *TokenResponse) ExpiresAt(loc *time.Location, now time.Time) time.Time {
	if r.AccessTokenExpired != "" {
		if t, err := time.ParseInLocation(tokenExpiryLayout, r.AccessTokenExpired, loc); err == nil {
			return t
		}
	}
	if r.ExpiresIn > 0 {
		return now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return now.Add(24 * time.Hour)
}

// APIResponse is the envelope shared by every quotation endpoint.
type APIResponse struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`
}

func (r APIResponse) OK() bool {
	return r.RtCd == "0"
}

type PriceOutput struct {
	StckPrpr     string `json:"stck_prpr"`
	PrdyVrss     string `json:"prdy_vrss"`
	PrdyVrssSign string `json:"prdy_vrss_sign"`
	PrdyCtrt     string `json:"prdy_ctrt"`
	AcmlVol      string `json:"acml_vol"`
	AcmlTrPbmn   string `json:"acml_tr_pbmn"`
	StckOprc     string `json:"stck_oprc"`
	StckHgpr     string `json:"stck_hgpr"`
	StckLwpr     string `json:"stck_lwpr"`
	StckSdpr     string `json:"stck_sdpr"`
	BstpKorIsnm  string `json:"bstp_kor_isnm"`
	HtsAvls      string `json:"hts_avls"`
	Per          string `json:"per"`
	Pbr          string `json:"pbr"`
	W52Hgpr      string `json:"w52_hgpr"`
	W52Lwpr      string `json:"w52_lwpr"`
}

type PriceResponse struct {
	APIResponse
	Output PriceOutput `json:"output"`
}

type DailyPriceItem struct {
	StckBsopDate string `json:"stck_bsop_date"`
	StckClpr     string `json:"stck_clpr"`
	StckOprc     string `json:"stck_oprc"`
	StckHgpr     string `json:"stck_hgpr"`
	StckLwpr     string `json:"stck_lwpr"`
	AcmlVol      string `json:"acml_vol"`
	AcmlTrPbmn   string `json:"acml_tr_pbmn"`
	PrdyVrssSign string `json:"prdy_vrss_sign"`
	PrdyVrss     string `json:"prdy_vrss"`
}

type DailyPriceResponse struct {
	APIResponse
	Output2 []DailyPriceItem `json:"output2"`
}

type IndexPriceOutput struct {
	BstpNmixPrpr     string `json:"bstp_nmix_prpr"`
	BstpNmixPrdyVrss string `json:"bstp_nmix_prdy_vrss"`
	PrdyVrssSign     string `json:"prdy_vrss_sign"`
	BstpNmixPrdyCtrt string `json:"bstp_nmix_prdy_ctrt"`
	AcmlVol          string `json:"acml_vol"`
	AcmlTrPbmn       string `json:"acml_tr_pbmn"`
	BstpNmixOprc     string `json:"bstp_nmix_oprc"`
	BstpNmixHgpr     string `json:"bstp_nmix_hgpr"`
	BstpNmixLwpr     string `json:"bstp_nmix_lwpr"`
}

type IndexPriceResponse struct {
	APIResponse
	Output IndexPriceOutput `json:"output"`
}

type IndexDailyPriceItem struct {
	StckBsopDate string `json:"stck_bsop_date"`
	BstpNmixPrpr string `json:"bstp_nmix_prpr"`
	BstpNmixOprc string `json:"bstp_nmix_oprc"`
	BstpNmixHgpr string `json:"bstp_nmix_hgpr"`
	BstpNmixLwpr string `json:"bstp_nmix_lwpr"`
	AcmlVol      string `json:"acml_vol"`
	AcmlTrPbmn   string `json:"acml_tr_pbmn"`
}

type IndexDailyPriceResponse struct {
	APIResponse
	Output2 []IndexDailyPriceItem `json:"output2"`
}

// Period selects daily, weekly or monthly bars.
type Period string

const (
	PeriodDay   Period = "D"
	PeriodWeek  Period = "W"
	PeriodMonth Period = "M"
)

func (p Period) Valid() bool {
	return p == PeriodDay || p == PeriodWeek || p == PeriodMonth
}
