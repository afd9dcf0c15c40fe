package analyze

import "testing"

func TestCategorize(t *testing.T) {
	t.Parallel()
	cases := []struct {
		selector string
		expected Category
	}{
		{".btn-primary", CategoryButton},
		{"button.close", CategoryButton},
		{"a", CategoryLink},
		{".external-link", CategoryLink},
		{".card-header", CategoryCard},
		{".sidebar", CategorySidebar},
		{".site-header", CategoryHeader},
		{".site-footer", CategoryFooter},
		{".nav-badge-primary", CategoryNavigation},
		{".breadcrumb-item", CategoryNavigation},
		{"input[type=text]", CategoryInput},
		{".modal-backdrop", CategoryModal},
		{".toast", CategoryAlert},
		{".chip", CategoryBadge},
		{".tab-list", CategoryTab},
		{".table", CategoryTable},
		{".toggle-switch", CategorySwitch},
		{".dropdown-item", CategoryDropdown},
		{"pre", CategoryCode},
		{"td.price", CategoryTable},
		{"body", CategoryBackground},
		{".page-wrapper", CategoryBackground},
		{".divider", CategoryBorder},
		{".icon-search", CategoryIcon},
		{"h1", CategoryText},
		{"p.lead", CategoryText},
		{".random-thing", CategoryOther},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.selector, func(t *testing.T) {
			t.Parallel()
			if got := Categorize(tc.selector); got != tc.expected {
				t.Fatalf("Categorize(%q) = %q, expected %q", tc.selector, got, tc.expected)
			}
		})
	}
}

func TestSelectorSpecificity(t *testing.T) {
	t.Parallel()
	cases := []struct {
		selector string
		expected int
	}{
		{"a", 1},
		{".btn", 10},
		{".btn:hover", 20},
		{"#main .btn", 110},
		{"nav ul li a", 4},
		{".a.b.c", 30},
		{"[data-state]", 10},
		{"header nav a.active", 13},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.selector, func(t *testing.T) {
			t.Parallel()
			if got := selectorSpecificity(tc.selector); got != tc.expected {
				t.Fatalf("selectorSpecificity(%q) = %d, expected %d", tc.selector, got, tc.expected)
			}
		})
	}
}

func TestKeySimpleSelector(t *testing.T) {
	t.Parallel()
	cases := []struct {
		selector string
		expected string
	}{
		{".btn-primary:hover", ".btn-primary"},
		{"#main", "#main"},
		{"nav .menu a", "a"},
		{"div.card", ".card"},
		{".a.b", ".a"},
		{"BUTTON", "button"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.selector, func(t *testing.T) {
			t.Parallel()
			if got := keySimpleSelector(tc.selector); got != tc.expected {
				t.Fatalf("keySimpleSelector(%q) = %q, expected %q", tc.selector, got, tc.expected)
			}
		})
	}
}

func findGroup(t *testing.T, groups []SelectorGroup, cat Category) SelectorGroup {
	t.Helper()
	for _, g := range groups {
		if g.Category == cat {
			return g
		}
	}
	t.Fatalf("category %q not found among %d groups", cat, len(groups))
	return SelectorGroup{}
}

func findSelector(t *testing.T, g SelectorGroup, sel string) Selector {
	t.Helper()
	for _, s := range g.Selectors {
		if s.Selector == sel {
			return s
		}
	}
	t.Fatalf("selector %q not found in category %q", sel, g.Category)
	return Selector{}
}

func TestDiscoverSelectors(t *testing.T) {
	t.Parallel()
	html := `<body>
<a class="cta">One</a><a class="cta">Two</a><a class="cta">Three</a><span class="cta">Four</span>
<p class="note">hello</p>
</body>`
	css := `
.cta { color: #ffffff; cursor: pointer; }
.cta { background-color: #007bff; }
.note { color: rgb(51, 51, 51); }
.hero { background: linear-gradient(90deg, #000, #fff); }
.ghost { background: var(--brand-primary); }
.deco::before { color: #ff0000; }
.bordered { border: 1px solid #dddddd; }
`
	groups := DiscoverSelectors(html, css)

	buttons := findGroup(t, groups, CategoryButton)
	cta := findSelector(t, buttons, ".cta")
	if cta.Styles.Color != "#FFFFFF" || cta.Styles.BackgroundColor != "#007BFF" {
		t.Fatalf("merged styles = %+v, expected color #FFFFFF and background #007BFF", cta.Styles)
	}
	if !cta.Interactive {
		t.Fatalf("cta.Interactive = false, expected true (cursor: pointer)")
	}
	if !cta.HasBackground {
		t.Fatalf("cta.HasBackground = false, expected true")
	}
	if cta.TextOnly {
		t.Fatalf("cta.TextOnly = true, expected false")
	}
	if cta.Frequency != 4 {
		t.Fatalf("cta.Frequency = %d, expected 4 (DOM count wins over 2 CSS rules)", cta.Frequency)
	}

	note := findSelector(t, findGroup(t, groups, CategoryOther), ".note")
	if note.Styles.Color != "#333333" {
		t.Fatalf("note color = %q, expected #333333", note.Styles.Color)
	}
	if !note.TextOnly {
		t.Fatalf("note.TextOnly = false, expected true")
	}

	bordered := findSelector(t, findGroup(t, groups, CategoryBorder), ".bordered")
	if bordered.Styles.BorderColor != "#DDDDDD" || !bordered.HasBorder {
		t.Fatalf("bordered = %+v, expected border color #DDDDDD", bordered)
	}

	for _, g := range groups {
		for _, s := range g.Selectors {
			if s.Selector == ".hero" {
				t.Fatalf("gradient-only selector .hero should have been excluded")
			}
			if s.Selector == ".ghost" {
				t.Fatalf("var()-valued selector .ghost should have been excluded")
			}
			if s.Selector == ".deco::before" {
				t.Fatalf("pseudo-element selector should have been excluded")
			}
		}
	}
}

func TestDiscoverSelectorsGroupOrderAndSorting(t *testing.T) {
	t.Parallel()
	css := `
h2 { color: #111111; }
.btn-a { color: #222222; }
.btn-b { color: #333333; }
.btn-b { background-color: #444444; }
`
	groups := DiscoverSelectors("", css)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, expected 2", len(groups))
	}
	if groups[0].Category != CategoryButton || groups[1].Category != CategoryText {
		t.Fatalf("group order = %q, %q, expected button then text", groups[0].Category, groups[1].Category)
	}
	btns := groups[0].Selectors
	if btns[0].Selector != ".btn-b" {
		t.Fatalf("first button = %q, expected .btn-b (higher rule frequency)", btns[0].Selector)
	}
}

func TestDiscoverSelectorsInteractivePseudo(t *testing.T) {
	t.Parallel()
	css := `.menu-item:hover { color: #ffffff; }`
	groups := DiscoverSelectors("", css)
	nav := findGroup(t, groups, CategoryNavigation)
	item := findSelector(t, nav, ".menu-item:hover")
	if !item.Interactive {
		t.Fatalf("hover selector not flagged interactive")
	}
	if item.Specificity != 20 {
		t.Fatalf("specificity = %d, expected 20", item.Specificity)
	}
}

func TestDiscoverSelectorsEmpty(t *testing.T) {
	t.Parallel()
	if groups := DiscoverSelectors("", ""); groups != nil {
		t.Fatalf("expected nil groups for empty css, got %d", len(groups))
	}
}
