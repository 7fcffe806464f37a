package permissions_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/permissions"
)

func TestCatalogHasEighteenFlagsInFiveCategories(t *testing.T) {
	flags := permissions.All()
	if got := len(flags); got != 18 {
		t.Fatalf("expected 18 flags, got %d", got)
	}

	seen := make(map[permissions.Flag]struct{}, len(flags))
	total := 0
	for _, category := range permissions.Categories() {
		members := permissions.InCategory(category)
		if len(members) == 0 {
			t.Fatalf("category %q has no flags", category)
		}
		for _, flag := range members {
			if _, dup := seen[flag]; dup {
				t.Fatalf("flag %q listed in more than one category", flag)
			}
			seen[flag] = struct{}{}
		}
		total += len(members)
	}
	if total != len(flags) {
		t.Fatalf("categories cover %d flags, catalog has %d", total, len(flags))
	}
}

func TestOfGrantsOnlyListedFlags(t *testing.T) {
	set := permissions.Of(permissions.ViewReports, permissions.ExportData, permissions.Flag("bogus"))

	want := []permissions.Flag{permissions.ViewReports, permissions.ExportData}
	if diff := cmp.Diff(want, set.Granted()); diff != "" {
		t.Fatalf("granted mismatch (-want +got):\n%s", diff)
	}
	if got := len(set); got != 18 {
		t.Fatalf("expected every flag to be present, got %d entries", got)
	}
	if !set.Equal(permissions.Of(permissions.ExportData, permissions.ViewReports)) {
		t.Fatalf("expected order independent equality")
	}
}

func TestGroupDropsUnknownFlags(t *testing.T) {
	grouped := permissions.Group([]permissions.Flag{
		permissions.ManageVendors,
		permissions.ManageBudgets,
		permissions.Flag("canFly"),
	})
	want := map[permissions.Category][]permissions.Flag{
		permissions.CategorySpecialized: {permissions.ManageVendors},
		permissions.CategoryFinancial:   {permissions.ManageBudgets},
	}
	if diff := cmp.Diff(want, grouped); diff != "" {
		t.Fatalf("group mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAccessLevel(t *testing.T) {
	level, err := permissions.ParseAccessLevel(" advanced ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if level != permissions.AccessAdvanced {
		t.Fatalf("expected Advanced, got %s", level)
	}
	if !level.AtLeast(permissions.AccessStandard) || level.AtLeast(permissions.AccessAdmin) {
		t.Fatalf("unexpected ordering for %s", level)
	}

	if _, err := permissions.ParseAccessLevel("root"); !errors.Is(err, permissions.ErrUnknownAccessLevel) {
		t.Fatalf("expected ErrUnknownAccessLevel, got %v", err)
	}
	var zero permissions.AccessLevel
	if zero != permissions.AccessBasic {
		t.Fatalf("zero value should be Basic")
	}
}
