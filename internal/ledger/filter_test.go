package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{ID: 1, InventoryType: "Grocery", Department: "Kitchen", ItemsName: "Rice", PartyName: "Acme Traders", EventDate: "01/03/2024", OpeningBalance: 10, PurchaseData: 5, PerUnitPrice: 2},
		{ID: 2, InventoryType: "Grocery", Department: "Bar", ItemsName: "Syrup", PartyName: "Beta", EventDate: "15/03/2024", OpeningBalance: 4, PurchaseData: 1, PerUnitPrice: 10},
		{ID: 3, InventoryType: "Cleaning", Department: "Kitchen", ItemsName: "Soap", PartyName: "ACME", EventDate: "31/03/2024", OpeningBalance: 7, PurchaseData: 0, PerUnitPrice: 3},
		{ID: 4, InventoryType: "Grocery", Department: "Kitchen", ItemsName: "Dal", PartyName: "", EventDate: "not-a-date", OpeningBalance: 20, PurchaseData: 2, PerUnitPrice: 1},
		{ID: 5, InventoryType: "Cleaning", Department: "Bar", ItemsName: "Mop", PartyName: "gamma", EventDate: "", OpeningBalance: 1, PurchaseData: 1, PerUnitPrice: 50},
	}
}

func ids(rs []Record) []int {
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterANDComposition(t *testing.T) {
	f := Filter{Loc: time.UTC}
	got := f.Apply(sampleRecords(), FilterSpec{Department: "Kitchen", InventoryType: "Grocery"})
	require.Equal(t, []int{1, 4}, ids(got))

	require.Equal(t, int64(30), Sum(got, FieldOpening))
	require.Equal(t, int64(7), Sum(got, FieldPurchase))

	stats := Aggregate(got)
	require.Equal(t, 2, stats.Count)
	require.Equal(t, int64(15+22), stats.SubTotalBalance)
	require.Equal(t, int64(15*2+22*1), stats.TotalValue)
}

func TestFilterEmptySpecPassesEverything(t *testing.T) {
	f := Filter{}
	require.Len(t, f.Apply(sampleRecords(), FilterSpec{}), 5)
}

func TestFilterPartyNameCaseInsensitive(t *testing.T) {
	f := Filter{}
	got := f.Apply(sampleRecords(), FilterSpec{PartyName: "acme"})
	require.Equal(t, []int{1, 3}, ids(got))
}

func TestFilterDateRangeInclusive(t *testing.T) {
	f := Filter{Loc: time.UTC}
	start := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	got := f.Apply(sampleRecords(), FilterSpec{DateStart: start, DateEnd: end})
	require.Equal(t, []int{1, 2}, ids(got))

	got = f.Apply(sampleRecords(), FilterSpec{DateStart: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)})
	require.Equal(t, []int{2, 3}, ids(got))
}

func TestFilterExactDate(t *testing.T) {
	f := Filter{Loc: time.UTC}
	got := f.Apply(sampleRecords(), FilterSpec{ExactDate: time.Date(2024, 3, 31, 22, 0, 0, 0, time.UTC)})
	require.Equal(t, []int{3}, ids(got))
}

func TestFilterSearch(t *testing.T) {
	f := Filter{}
	require.Equal(t, []int{2}, ids(f.Apply(sampleRecords(), FilterSpec{Search: "SYR"})))
	require.Equal(t, []int{2, 5}, ids(f.Apply(sampleRecords(), FilterSpec{Search: "bar"})))
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := sampleRecords()
	_ = Filter{}.Apply(in, FilterSpec{InventoryType: "Grocery"})
	require.Equal(t, sampleRecords(), in)
}

func TestSnapshotMemoizesViews(t *testing.T) {
	snap := NewSnapshot(Partition{Pending: sampleRecords(), History: []Record{}}, Filter{}, time.Now())
	spec := FilterSpec{InventoryType: "Grocery"}
	first := snap.View(SectionPending, spec)
	second := snap.View(SectionPending, spec)
	require.Equal(t, first, second)
	require.Len(t, snap.memo, 1)

	hist := snap.View(SectionHistory, spec)
	require.Empty(t, hist.Records)
	require.Len(t, snap.memo, 2)
}

func TestSnapshotViewKeysDatesInFilterZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	snap := NewSnapshot(Partition{Pending: sampleRecords()}, Filter{Loc: ist}, time.Now())

	fifteenth := snap.View(SectionPending, FilterSpec{ExactDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)})
	require.Equal(t, []int{2}, ids(fifteenth.Records))

	// 22:00 UTC on the 15th is already the 16th in the filter zone.
	sixteenth := snap.View(SectionPending, FilterSpec{ExactDate: time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)})
	require.Empty(t, sixteenth.Records)
}

func TestSnapshotMemoIsBounded(t *testing.T) {
	snap := NewSnapshot(Partition{Pending: sampleRecords()}, Filter{}, time.Now())
	for i := 0; i < 3*maxMemoViews; i++ {
		snap.View(SectionPending, FilterSpec{Search: fmt.Sprintf("item-%d", i)})
		require.LessOrEqual(t, len(snap.memo), maxMemoViews)
	}
	v := snap.View(SectionPending, FilterSpec{Search: "rice"})
	require.Equal(t, []int{1}, ids(v.Records))
}
