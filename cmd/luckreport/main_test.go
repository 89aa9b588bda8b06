package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rollkeeper/internal/luck"
)

const fixtureYAML = `
records:
  - id: 1
    entity_id: 1
    entity_name: Amaryllis the Rogue
    collection_id: 10
    collection_name: The Party
    formula: 1d20
    final_result: 5
    luck_index: -0.2895
    rolled_at: 2024-05-01T12:00:00Z
    components: '[{"component_type":"dice","formula":"1d20","rolls":[5],"total":5}]'
  - id: 2
    entity_id: 1
    entity_name: Amaryllis the Rogue
    collection_id: 10
    collection_name: The Party
    formula: 1d20
    final_result: 20
    luck_index: 0.5
    rolled_at: 2024-05-01T13:00:00Z
    components:
      - component_type: dice
        formula: 1d20
        rolls: [20]
        total: 20
  - id: 3
    entity_id: 2
    entity_name: Goblin Grunt
    collection_id: 11
    collection_name: The Horde
    formula: 1d20-1
    final_result: 2
    luck_index: -0.3947
    rolled_at: 2024-05-01T14:00:00Z
    components: '[{"component_type":"dice","formula":"1d20","rolls":[3],"total":3},{"component_type":"modifier","formula":"1","value":1,"total":1}]'
  - id: 4
    entity_id: 2
    entity_name: Goblin Grunt
    collection_id: 11
    collection_name: The Horde
    formula: 1d6
    final_result: 4
    rolled_at: 2024-05-01T15:00:00Z
    components: 'garbage'
`

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
}

func runReport(t *testing.T, args ...string) Report {
	t.Helper()
	t.Setenv("ROLLKEEPER_LOGGING_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr, fixedNow)
	require.Equal(t, 0, code, stderr.String())

	var r Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &r))
	return r
}

func TestRun_YAMLFixture(t *testing.T) {
	path := writeFixture(t, "rolls.yaml", fixtureYAML)
	r := runReport(t, "-input", path)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, "global", r.Scope)
	assert.Equal(t, 4, r.RecordCount)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 4, r.ModifiedRolls.TotalRolls)
	assert.Equal(t, 3, r.RawDice.TotalRawDiceCount)

	require.Len(t, r.DiceTypes, 1)
	d20 := r.DiceTypes[0]
	assert.Equal(t, 20, d20.DieSize)
	assert.Equal(t, 3, d20.RollCount)
	assert.Equal(t, 9.33, d20.AverageRoll)

	require.NotNil(t, r.Luckiest)
	assert.Equal(t, int64(1), r.Luckiest.EntityID)
	require.NotNil(t, r.LeastLucky)
	assert.Equal(t, int64(2), r.LeastLucky.EntityID)

	require.Len(t, r.Collections, 2)
	assert.Equal(t, "The Party", r.Collections[0].CollectionName)

	require.NotNil(t, r.DailyLuckiest)
	assert.Equal(t, "2024-05-01", r.DailyLuckiest.Date)
	assert.Equal(t, int64(1), r.DailyLuckiest.EntityID)
}

func TestRun_ScopedToCollection(t *testing.T) {
	path := writeFixture(t, "rolls.yml", fixtureYAML)
	r := runReport(t, "-input", path, "-collection", "11")
	assert.Equal(t, "collection 11", r.Scope)
	assert.Equal(t, 2, r.RecordCount)
	require.Len(t, r.Entities, 1)
	assert.Equal(t, "Goblin Grunt", r.Entities[0].EntityName)
}

func TestRun_MinDiceExcludesEveryone(t *testing.T) {
	path := writeFixture(t, "rolls.yaml", fixtureYAML)
	r := runReport(t, "-input", path, "-min-dice", "50", "-day", "2024-04-30")
	assert.Nil(t, r.Luckiest)
	assert.Nil(t, r.LeastLucky)
	assert.Nil(t, r.DailyLuckiest)
	assert.Equal(t, 50, r.MinDiceRolled)
}

func TestRun_JSONFixture(t *testing.T) {
	path := writeFixture(t, "rolls.json", `{"records":[
		{"id":1,"entity_id":3,"entity_name":"Bard","final_result":8,"rolled_at":"2024-05-01T10:00:00Z",
		 "components":[{"component_type":"dice","formula":"2d4","rolls":[4,4],"total":8}]}]}`)
	r := runReport(t, "-input", path)
	assert.Equal(t, 1, r.RecordCount)
	require.Len(t, r.DiceTypes, 1)
	assert.Equal(t, 4, r.DiceTypes[0].DieSize)
	assert.Equal(t, 1.6, r.DiceTypes[0].LuckIndex)
}

func TestRun_DiceTypesAscendingByDieSize(t *testing.T) {
	path := writeFixture(t, "mixed.json", `{"records":[
		{"id":1,"entity_id":3,"entity_name":"Bard","final_result":150,"rolled_at":"2024-05-01T10:00:00Z",
		 "components":[
		   {"component_type":"dice","formula":"1d100","rolls":[50],"total":50},
		   {"component_type":"dice","formula":"1d20","rolls":[10],"total":10},
		   {"component_type":"dice","formula":"1d4","rolls":[2],"total":2}]}]}`)
	t.Setenv("ROLLKEEPER_LOGGING_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-input", path}, &stdout, &stderr, fixedNow), stderr.String())

	var raw struct {
		DiceTypes []struct {
			DieSize int `json:"die_size"`
		} `json:"dice_types"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &raw))
	sizes := make([]int, 0, len(raw.DiceTypes))
	for _, d := range raw.DiceTypes {
		sizes = append(sizes, d.DieSize)
	}
	assert.Equal(t, []int{4, 20, 100}, sizes)
}

func TestRun_BadArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"-entity", "1", "-collection", "2"}, &stdout, &stderr, fixedNow))
	assert.Equal(t, 2, run([]string{"-entity", "-4"}, &stdout, &stderr, fixedNow))
	assert.Equal(t, 2, run([]string{"-input", "rolls.csv"}, &stdout, &stderr, fixedNow))
	assert.Equal(t, 2, run([]string{"extra"}, &stdout, &stderr, fixedNow))
}

func TestBuildReport_Empty(t *testing.T) {
	r := BuildReport(luck.Load(nil), ReportParams{
		ID:       uuid.New(),
		Scope:    luck.Global(),
		MinDice:  1,
		Day:      fixedNow(),
		Location: time.UTC,
	})
	assert.Zero(t, r.RecordCount)
	assert.Nil(t, r.ModifiedRolls.Avg)
	assert.Empty(t, r.DiceTypes)
	assert.Empty(t, r.Entities)
	assert.Nil(t, r.Luckiest)
	assert.Nil(t, r.DailyLuckiest)
}
