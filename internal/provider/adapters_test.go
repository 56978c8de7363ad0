package provider

import (
	"testing"

	"hero-tracker/internal/derive"
	"hero-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrimary(t *testing.T) {
	body := []byte(`{"data":[
		{"id":12,"name":"Paquito","role":"Fighter","win_rate":0.565,"ban_rate":0.12,"pick_rate":0.03,"image":"paquito.png"},
		{"id":7,"name":"Miya","role":"Marksman","win_rate":50.9,"ban_rate":1.2,"pick_rate":8.4,"image":"miya.png"},
		{"id":9,"role":"Mage","win_rate":0.5}
	]}`)

	heroes := parsePrimary(body)
	require.Len(t, heroes, 2, "nameless record skipped")

	assert.Equal(t, "12", heroes[0].ID)
	assert.Equal(t, "56.5%", heroes[0].WinRate)
	assert.Equal(t, "S+", heroes[0].Tier)

	// Percent-style numbers are normalized into [0,1].
	assert.InDelta(t, 0.509, heroes[1].RawWinRate, 1e-9)
	assert.Equal(t, "50.9%", heroes[1].WinRate)
	assert.Equal(t, "B", heroes[1].Tier)
}

func TestParsePrimaryMissingRates(t *testing.T) {
	body := []byte(`{"data":[{"id":3,"name":"Nana","role":"Support","image":"nana.png"}]}`)

	heroes := parsePrimary(body)
	require.Len(t, heroes, 1)

	h := heroes[0]
	assert.False(t, h.HasWinRate)
	assert.Equal(t, domain.RatePlaceholder, h.WinRate)
	assert.Equal(t, domain.RatePlaceholder, h.BanRate)
	assert.Equal(t, derive.TierUnranked, h.Tier)
	assert.Zero(t, h.RawWinRate, "unknown metric sorts as zero")
}

func TestParsePrimarySkipsMalformedRecord(t *testing.T) {
	body := []byte(`{"data":[
		{"id":"not-a-number","name":"Broken"},
		{"id":5,"name":"Fine","role":"Tank","win_rate":0.5}
	]}`)

	heroes := parsePrimary(body)
	require.Len(t, heroes, 1)
	assert.Equal(t, "Fine", heroes[0].Name)
}

func TestParsePrimaryGarbage(t *testing.T) {
	assert.Nil(t, parsePrimary([]byte(`<html>maintenance</html>`)))
	assert.Nil(t, parsePrimary([]byte(`{"data":"nope"}`)))
}

func TestParseSecondary(t *testing.T) {
	body := []byte(`{"heroes":[
		{"heroid":31,"name":"Ling","lane":"Jungle","win":"54.2%","ban":"22.1%","pick":"3.3%","icon":"ling.png"},
		{"heroid":0,"name":"Layla","lane":"Gold","win":48.1,"ban":0.2,"pick":5.5,"icon":"layla.png"}
	]}`)

	heroes := parseSecondary(body)
	require.Len(t, heroes, 2)

	assert.Equal(t, "31", heroes[0].ID)
	assert.InDelta(t, 0.542, heroes[0].RawWinRate, 1e-9)
	assert.Equal(t, "S", heroes[0].Tier)
	assert.Equal(t, "Jungle", heroes[0].Role)

	assert.Empty(t, heroes[1].ID, "zero heroid treated as absent")
	assert.Equal(t, "48.1%", heroes[1].WinRate)
}

func TestParseProbedGuessesFieldNames(t *testing.T) {
	body := []byte(`{"records":[
		{"hero_name":"Franco","position":"Roam","wr":0.47,"br":0.01,"pr":0.02,"avatar":"franco.png"},
		{"hero_name":"Kagura","position":"Mid","wr":"51.0%"}
	]}`)

	heroes := parseProbed(body)
	require.Len(t, heroes, 2)

	assert.Equal(t, "Franco", heroes[0].Name)
	assert.Equal(t, "Roam", heroes[0].Role)
	assert.Equal(t, "C", heroes[0].Tier)

	assert.InDelta(t, 0.51, heroes[1].RawWinRate, 1e-9)
	assert.Equal(t, "A", heroes[1].Tier)
}

func TestParseProbedRootArray(t *testing.T) {
	body := []byte(`[{"name":"Chou","role":"Fighter","win":0.52}]`)

	heroes := parseProbed(body)
	require.Len(t, heroes, 1)
	assert.Equal(t, "Chou", heroes[0].Name)
}

func TestParseProbedNestedRecords(t *testing.T) {
	body := []byte(`{"data":{"records":[
		{"main_hero.name":"x"},
		{"main_hero":{"name":"Fanny"},"main_hero_win_rate":0.55,"main_hero_ban_rate":0.3,"main_hero_appearance_rate":0.02}
	]}}`)

	heroes := parseProbed(body)
	require.Len(t, heroes, 1)
	assert.Equal(t, "Fanny", heroes[0].Name)
	assert.Equal(t, "S", heroes[0].Tier)
	assert.Equal(t, "30.0%", heroes[0].BanRate)
}

func TestParseNameList(t *testing.T) {
	assert.Equal(t, []string{"Chou", "Khufra"}, parseNameList([]byte(`{"data":["Chou","Khufra"]}`)))
	assert.Equal(t, []string{"Ling"}, parseNameList([]byte(`{"data":[{"name":"Ling"}]}`)))
	assert.Empty(t, parseNameList([]byte(`not json`)))
}

func TestDedupeFirstSeenWins(t *testing.T) {
	heroes := dedupe([]domain.Hero{
		{ID: "12", Name: "Paquito", Role: "Fighter"},
		{ID: "12", Name: "PAQUITO", Role: "Exp"},
		{Name: "Miya"},
		{Name: "miya"},
	})

	require.Len(t, heroes, 2)
	assert.Equal(t, "Fighter", heroes[0].Role)
	assert.Equal(t, "Miya", heroes[1].Name)
}

func TestResolveID(t *testing.T) {
	known := []domain.Hero{
		{ID: "88", Name: "Yu Zhong"},
		{Name: "Ling"},
	}

	id, ok := resolveID("yu-zhong", known)
	require.True(t, ok)
	assert.Equal(t, "88", id)

	id, ok = resolveID("LING", known)
	require.True(t, ok)
	assert.Equal(t, "Ling", id, "hero without provider id resolves to its name")

	_, ok = resolveID("nobody", known)
	assert.False(t, ok)
}

func TestParseRateString(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"54.2%", 0.542, true},
		{" 54.2% ", 0.542, true},
		{"0.542", 0.542, true},
		{"—", 0, false},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseRateString(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, tc.in)
		}
	}
}
