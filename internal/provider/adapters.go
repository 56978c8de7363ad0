package provider

import (
	"encoding/json"
	"strconv"
	"strings"

	"hero-tracker/internal/derive"
	"hero-tracker/internal/domain"

	"github.com/tidwall/gjson"
)

// Each adapter is total: it parses what it can from a raw body and
// skips malformed records instead of failing. The chain replaces the
// scattered field-name guessing the provider's drift used to force;
// adding support for a new response shape means adding one adapter.

type bodySource int

const (
	sourcePrimary bodySource = iota
	sourceSecondary
)

type adapter struct {
	name   string
	source bodySource
	parse  func(body []byte) []domain.Hero
}

var adapterChain = []adapter{
	{name: "primary-envelope", source: sourcePrimary, parse: parsePrimary},
	{name: "secondary-envelope", source: sourceSecondary, parse: parseSecondary},
	{name: "field-probe", source: sourcePrimary, parse: parseProbed},
	{name: "field-probe-secondary", source: sourceSecondary, parse: parseProbed},
}

// parsePrimary handles the canonical shape:
//
//	{"data": [{"id": "...", "name": "...", "role": "...",
//	           "win_rate": 0.54, "ban_rate": 0.1, "pick_rate": 0.02,
//	           "image": "..."}]}
func parsePrimary(body []byte) []domain.Hero {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	var heroes []domain.Hero
	for _, raw := range envelope.Data {
		var rec struct {
			ID       json.Number `json:"id"`
			Name     string      `json:"name"`
			Role     string      `json:"role"`
			WinRate  *float64    `json:"win_rate"`
			BanRate  *float64    `json:"ban_rate"`
			PickRate *float64    `json:"pick_rate"`
			Image    string      `json:"image"`
		}
		// A malformed record is skipped, not fatal.
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Name == "" {
			continue
		}
		h := domain.Hero{
			ID:       rec.ID.String(),
			Name:     rec.Name,
			Role:     rec.Role,
			ImageURL: rec.Image,
		}
		if h.ID == "" || h.ID == "0" {
			h.ID = ""
		}
		winRaw, winHas := ptrRate(rec.WinRate)
		setWinRate(&h, winRaw, winHas)
		banRaw, banHas := ptrRate(rec.BanRate)
		setBanRate(&h, banRaw, banHas)
		pickRaw, pickHas := ptrRate(rec.PickRate)
		setPickRate(&h, pickRaw, pickHas)
		heroes = append(heroes, finish(h))
	}
	return heroes
}

// parseSecondary handles the older list shape:
//
//	{"heroes": [{"heroid": 12, "name": "...", "lane": "...",
//	             "win": "54.2%", "ban": "1.3%", "pick": "0.8%",
//	             "icon": "..."}]}
func parseSecondary(body []byte) []domain.Hero {
	var envelope struct {
		Heroes []json.RawMessage `json:"heroes"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	var heroes []domain.Hero
	for _, raw := range envelope.Heroes {
		var rec struct {
			HeroID json.Number `json:"heroid"`
			Name   string      `json:"name"`
			Lane   string      `json:"lane"`
			Win    any         `json:"win"`
			Ban    any         `json:"ban"`
			Pick   any         `json:"pick"`
			Icon   string      `json:"icon"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Name == "" {
			continue
		}
		h := domain.Hero{
			ID:       rec.HeroID.String(),
			Name:     rec.Name,
			Role:     rec.Lane,
			ImageURL: rec.Icon,
		}
		if h.ID == "0" {
			h.ID = ""
		}
		winRaw, winHas := anyRate(rec.Win)
		setWinRate(&h, winRaw, winHas)
		banRaw, banHas := anyRate(rec.Ban)
		setBanRate(&h, banRaw, banHas)
		pickRaw, pickHas := anyRate(rec.Pick)
		setPickRate(&h, pickRaw, pickHas)
		heroes = append(heroes, finish(h))
	}
	return heroes
}

// Field-name guesses used by the probing adapter, in priority order.
var (
	probeArrayPaths = []string{"data", "data.records", "heroes", "records", "result", "@this"}
	probeNameKeys   = []string{"name", "hero_name", "hero.name", "main_hero.name", "title"}
	probeIDKeys     = []string{"id", "hero_id", "heroid", "hero.id"}
	probeRoleKeys   = []string{"role", "lane", "type", "position"}
	probeImageKeys  = []string{"image", "icon", "head", "avatar", "img"}
	probeWinKeys    = []string{"win_rate", "winRate", "win", "wr", "main_hero_win_rate"}
	probeBanKeys    = []string{"ban_rate", "banRate", "ban", "br", "main_hero_ban_rate"}
	probePickKeys   = []string{"pick_rate", "pickRate", "pick", "pr", "main_hero_appearance_rate"}
)

// parseProbed is the last-resort adapter: it walks whatever array it
// can find and guesses field names per record.
func parseProbed(body []byte) []domain.Hero {
	if !gjson.ValidBytes(body) {
		return nil
	}

	root := gjson.ParseBytes(body)
	var records []gjson.Result
	for _, path := range probeArrayPaths {
		candidate := root.Get(path)
		if candidate.IsArray() && len(candidate.Array()) > 0 {
			records = candidate.Array()
			break
		}
	}
	if records == nil {
		return nil
	}

	var heroes []domain.Hero
	for _, rec := range records {
		name := firstString(rec, probeNameKeys)
		if name == "" {
			continue
		}
		h := domain.Hero{
			ID:       firstString(rec, probeIDKeys),
			Name:     name,
			Role:     firstString(rec, probeRoleKeys),
			ImageURL: firstString(rec, probeImageKeys),
		}
		winRaw, winHas := firstRate(rec, probeWinKeys)
		setWinRate(&h, winRaw, winHas)
		banRaw, banHas := firstRate(rec, probeBanKeys)
		setBanRate(&h, banRaw, banHas)
		pickRaw, pickHas := firstRate(rec, probePickKeys)
		setPickRate(&h, pickRaw, pickHas)
		heroes = append(heroes, finish(h))
	}
	return heroes
}

func parseDetail(body []byte) (summary, specialty string) {
	if !gjson.ValidBytes(body) {
		return "", ""
	}
	root := gjson.ParseBytes(body)
	summary = firstString(root, []string{"data.summary", "summary", "data.story", "story", "description"})
	specialty = firstString(root, []string{"data.specialty", "specialty", "data.speciality", "speciality"})
	return summary, specialty
}

// parseNameList extracts hero names from counter/compatibility
// responses, whichever of the known shapes came back.
func parseNameList(body []byte) []string {
	if !gjson.ValidBytes(body) {
		return []string{}
	}
	root := gjson.ParseBytes(body)

	var records []gjson.Result
	for _, path := range []string{"data", "data.records", "heroes", "@this"} {
		candidate := root.Get(path)
		if candidate.IsArray() && len(candidate.Array()) > 0 {
			records = candidate.Array()
			break
		}
	}

	names := []string{}
	for _, rec := range records {
		if rec.Type == gjson.String {
			if s := rec.String(); s != "" {
				names = append(names, s)
			}
			continue
		}
		if name := firstString(rec, probeNameKeys); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func firstString(rec gjson.Result, keys []string) string {
	for _, key := range keys {
		if v := rec.Get(key); v.Exists() {
			if s := strings.TrimSpace(v.String()); s != "" && s != "0" {
				return s
			}
		}
	}
	return ""
}

func firstRate(rec gjson.Result, keys []string) (float64, bool) {
	for _, key := range keys {
		v := rec.Get(key)
		if !v.Exists() {
			continue
		}
		switch v.Type {
		case gjson.Number:
			return normalizeRate(v.Float()), true
		case gjson.String:
			if raw, ok := parseRateString(v.String()); ok {
				return raw, true
			}
		}
	}
	return 0, false
}

func ptrRate(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return normalizeRate(*v), true
}

func anyRate(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return normalizeRate(t), true
	case string:
		return parseRateString(t)
	default:
		return 0, false
	}
}

func parseRateString(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || s == domain.RatePlaceholder {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	// A bare "54.2" means percent; "0.542" means fraction.
	return normalizeRate(f), true
}

// normalizeRate maps both percentage (0-100) and fractional (0-1)
// inputs onto the canonical [0,1] range.
func normalizeRate(f float64) float64 {
	if f > 1 {
		return f / 100
	}
	if f < 0 {
		return 0
	}
	return f
}

func setWinRate(h *domain.Hero, raw float64, has bool) {
	h.RawWinRate, h.HasWinRate = raw, has
}

func setBanRate(h *domain.Hero, raw float64, has bool) {
	h.RawBanRate, h.HasBanRate = raw, has
}

func setPickRate(h *domain.Hero, raw float64, has bool) {
	h.RawPickRate, h.HasPickRate = raw, has
}

// finish derives display strings and the tier label from the raw
// values so they can never diverge.
func finish(h domain.Hero) domain.Hero {
	h.WinRate = domain.FormatRate(h.RawWinRate, h.HasWinRate)
	h.BanRate = domain.FormatRate(h.RawBanRate, h.HasBanRate)
	h.PickRate = domain.FormatRate(h.RawPickRate, h.HasPickRate)
	h.Tier = derive.ClassifyTier(h.RawWinRate, h.HasWinRate)
	return h
}
