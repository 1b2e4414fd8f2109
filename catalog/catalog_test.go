package catalog

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// Default catalogue
// ---------------------------------------------------------------------------

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default(quietLogger())
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if cat.Len() != 38 {
		t.Errorf("Len() = %d, want 38", cat.Len())
	}

	seen := make(map[string]bool)
	for _, k := range cat.Keys() {
		if seen[k] {
			t.Errorf("duplicate output key %q", k)
		}
		seen[k] = true
	}

	for _, name := range []string{"Age", "Gender", "BloodPressure", "Albumin", "Albumin_G", "Hypertension", "Diabetes_Mellitus", "A_G_Ratio"} {
		if _, ok := cat.Field(name); !ok {
			t.Errorf("default catalogue missing %q", name)
		}
	}

	var agRatio []string
	for _, a := range cat.Aliases() {
		if a.Field == "A_G_Ratio" {
			agRatio = a.Keys
		}
	}
	if len(agRatio) != 1 || agRatio[0] != "A/G Ratio" {
		t.Errorf("A_G_Ratio aliases = %v, want [A/G Ratio]", agRatio)
	}
}

func TestDefaultCatalogFieldsMatch(t *testing.T) {
	cat, err := Default(quietLogger())
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	tests := []struct {
		field string
		text  string
		want  string
	}{
		{"Age", "Age: 52", "52"},
		{"Gender", "Gender: Female", "Female"},
		{"BloodPressure", "Blood Pressure (BP): 120/80", "120/80"},
		{"Glucose", "Blood Glucose Level (BGR): 148", "148"},
		{"Specific_Gravity", "Specific Gravity (SG): 1.020", "1.020"},
		{"Albumin", "Albumin (AL): 1", "1"},
		{"Sugar", "Sugar (SU): 0", "0"},
		{"RBC", "Red Blood Cells (RBC): normal", "normal"},
		{"Pus_Cells", "Pus Cells (PC): abnormal", "abnormal"},
		{"Pus_Cell_Clumps", "Pus Cell Clumps (PCC): notpresent", "notpresent"},
		{"Bacteria", "Bacteria (BA): present", "present"},
		{"Blood_Urea", "Blood Urea (BU): 36", "36"},
		{"Serum_Creatinine", "Serum Creatinine (SC): 1.2", "1.2"},
		{"Sodium", "Sodium (SOD): 137", "137"},
		{"Potassium", "Potassium (POT): 4.6", "4.6"},
		{"Hemoglobin", "Hemoglobin (HEMO): 15.4", "15.4"},
		{"Hematocrit", "Hematocrit (PCV): 44", "44"},
		{"WBC_Count", "White Blood Cell Count (WC): 7800", "7800"},
		{"RBC_Count", "Red Blood Cell Count (RC): 5.2", "5.2"},
		{"Hypertension", "Hypertension (HTN): Yes", "Yes"},
		{"Diabetes_Mellitus", "Diabetes (DM): No", "No"},
		{"Coronary_Artery_Disease", "Coronary Artery Disease (CAD): No", "No"},
		{"Appetite", "Appetite: Good", "Good"},
		{"Pedal_Edema", "Pedal Edema (PE): No", "No"},
		{"Anemia", "Anemia (ANE): No", "No"},
		{"Total_Bilirubin", "Total Bilirubin: 0.7", "0.7"},
		{"Direct_Bilirubin", "Direct Bilirubin: 0.1", "0.1"},
		{"Alkaline_Phosphotase", "Alkaline Phosphotase (Alkphos): 187", "187"},
		{"Sgpt", "Sgpt (Alamine Aminotransferase): 16", "16"},
		{"Sgot", "Sgot (Aspartate Aminotransferase): 18", "18"},
		{"Total_Proteins", "Total Proteins: 6.8", "6.8"},
		{"Albumin_G", "Albumin (ALB): 3.3", "3.3"},
		{"A_G_Ratio", "A/G Ratio: 0.9", "0.9"},
		{"Pregnancies", "Pregnancies: 6", "6"},
		{"Skin_Thickness", "Skin Thickness: 35", "35"},
		{"Insulin", "Insulin: 0", "0"},
		{"BMI", "BMI: 33.6", "33.6"},
		{"Diabetes_Pedigree_Function", "Diabetes Pedigree Function: 0.627", "0.627"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f, ok := cat.Field(tt.field)
			if !ok {
				t.Fatalf("field %q not in catalogue", tt.field)
			}
			got, found := f.Match(tt.text)
			if !found {
				t.Fatalf("%s: no match in %q (expr %s)", tt.field, tt.text, f.Expr())
			}
			if got != tt.want {
				t.Errorf("%s: got %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestAlbuminAbbreviationsDoNotCross(t *testing.T) {
	cat, err := Default(quietLogger())
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	urine, _ := cat.Field("Albumin")
	serum, _ := cat.Field("Albumin_G")

	if v, ok := urine.Match("Albumin (ALB): 3.3"); ok {
		t.Errorf("Albumin matched serum albumin text, got %q", v)
	}
	if v, ok := serum.Match("Albumin (AL): 1"); ok {
		t.Errorf("Albumin_G matched urine albumin text, got %q", v)
	}
}

func TestDiabetesLabelIgnoresPedigreeFunction(t *testing.T) {
	cat, err := Default(quietLogger())
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	dm, _ := cat.Field("Diabetes_Mellitus")

	if v, ok := dm.Match("Diabetes Pedigree Function: 0.627"); ok {
		t.Errorf("Diabetes_Mellitus matched pedigree function, got %q", v)
	}
	got, ok := dm.Match("Diabetes Pedigree Function: 0.627 DM: Yes")
	if !ok || got != "Yes" {
		t.Errorf("Diabetes_Mellitus = %q, %v; want Yes, true", got, ok)
	}
}

// ---------------------------------------------------------------------------
// Expression building
// ---------------------------------------------------------------------------

func TestFieldMatching(t *testing.T) {
	tests := []struct {
		name      string
		spec      FieldSpec
		text      string
		want      string
		wantFound bool
	}{
		{
			name: "label is case insensitive, value keeps case",
			spec: FieldSpec{Name: "Gender", Labels: []string{"Gender"}, Shape: ShapeWord, Vocabulary: []string{"Male", "Female"}},
			text: "gender: female", want: "female", wantFound: true,
		},
		{
			name: "word boundary before label",
			spec: FieldSpec{Name: "Age", Labels: []string{"Age"}, Shape: ShapeInteger},
			text: "Stage: 3", wantFound: false,
		},
		{
			name: "colon optional",
			spec: FieldSpec{Name: "Age", Labels: []string{"Age"}, Shape: ShapeInteger},
			text: "Age 45", want: "45", wantFound: true,
		},
		{
			name: "colon required",
			spec: FieldSpec{Name: "HTN", Labels: []string{"Hypertension"}, Shape: ShapeBoolean, RequireColon: true},
			text: "Hypertension history unknown", wantFound: false,
		},
		{
			name: "any parenthetical when no abbreviations",
			spec: FieldSpec{Name: "BP", Labels: []string{"Blood Pressure"}, Shape: ShapePair},
			text: "Blood Pressure (sitting): 118/76", want: "118/76", wantFound: true,
		},
		{
			name: "label spaces match newlines",
			spec: FieldSpec{Name: "BP", Labels: []string{"Blood Pressure"}, Shape: ShapePair},
			text: "Blood\nPressure: 118/76", want: "118/76", wantFound: true,
		},
		{
			name: "no-break space after colon",
			spec: FieldSpec{Name: "Age", Labels: []string{"Age"}, Shape: ShapeInteger},
			text: "Age:\u00a045", want: "45", wantFound: true,
		},
		{
			name: "unicode spaces inside label and abbreviation",
			spec: FieldSpec{Name: "BP", Labels: []string{"Blood Pressure"}, Abbreviations: []string{"BP"}, Shape: ShapePair},
			text: "Blood\u00a0Pressure\u2009(BP)\u00a0:\u202f120/80", want: "120/80", wantFound: true,
		},
		{
			name: "pair needs both halves",
			spec: FieldSpec{Name: "BP", Labels: []string{"Blood Pressure"}, Shape: ShapePair},
			text: "Blood Pressure: 118", wantFound: false,
		},
		{
			name: "decimal takes integer",
			spec: FieldSpec{Name: "SC", Labels: []string{"Serum Creatinine"}, Shape: ShapeDecimal},
			text: "Serum Creatinine: 2", want: "2", wantFound: true,
		},
		{
			name: "boolean vocabulary does not split words",
			spec: FieldSpec{Name: "X", Labels: []string{"Seen"}, Shape: ShapeBoolean, RequireColon: true},
			text: "Seen: Yesterday", want: "Yesterday", wantFound: true,
		},
		{
			name: "leftmost label wins over earlier alternative",
			spec: FieldSpec{Name: "DM", Labels: []string{"Diabetes Mellitus", "DM"}, Shape: ShapeBoolean, RequireColon: true},
			text: "DM: No ... Diabetes Mellitus: Yes", want: "No", wantFound: true,
		},
		{
			name: "label with slash",
			spec: FieldSpec{Name: "AG", Labels: []string{"A/G Ratio"}, Shape: ShapeDecimal},
			text: "A/G Ratio: 1.1", want: "1.1", wantFound: true,
		},
		{
			name: "raw pattern override",
			spec: FieldSpec{Name: "Ref", Pattern: `Ref#(\d{3})`},
			text: "see Ref#123", want: "123", wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := compile(tt.spec)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			got, found := f.Match(tt.text)
			if found != tt.wantFound {
				t.Fatalf("Match(%q) found=%v, want %v (expr %s)", tt.text, found, tt.wantFound, f.Expr())
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		spec FieldSpec
	}{
		{"no name", FieldSpec{Labels: []string{"Age"}, Shape: ShapeInteger}},
		{"no labels", FieldSpec{Name: "Age", Shape: ShapeInteger}},
		{"empty label", FieldSpec{Name: "Age", Labels: []string{" "}, Shape: ShapeInteger}},
		{"no shape", FieldSpec{Name: "Age", Labels: []string{"Age"}}},
		{"unknown shape", FieldSpec{Name: "Age", Labels: []string{"Age"}, Shape: "date"}},
		{"bad pattern", FieldSpec{Name: "Age", Pattern: `Age: (\d+`}},
		{"no capture group", FieldSpec{Name: "Age", Pattern: `Age: \d+`}},
		{"two capture groups", FieldSpec{Name: "Age", Pattern: `(Age): (\d+)`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(tt.spec)
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("compile() error = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

func TestBuilderLastRegistrationWins(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	cat, err := NewBuilder(logger).
		Add(FieldSpec{Name: "Albumin", Labels: []string{"Albumin"}, Abbreviations: []string{"AL"}, Shape: ShapeDecimal}).
		Add(FieldSpec{Name: "Age", Labels: []string{"Age"}, Shape: ShapeInteger}).
		Add(FieldSpec{Name: "Albumin", Labels: []string{"Albumin"}, Abbreviations: []string{"ALB"}, Shape: ShapeDecimal}).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if cat.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cat.Len())
	}
	keys := cat.Keys()
	if keys[0] != "Albumin" || keys[1] != "Age" {
		t.Errorf("Keys() = %v, want [Albumin Age]", keys)
	}

	f, _ := cat.Field("Albumin")
	if got := f.Spec().Abbreviations; len(got) != 1 || got[0] != "ALB" {
		t.Errorf("Albumin abbreviations = %v, want [ALB]", got)
	}
	if !strings.Contains(logs.String(), "duplicate catalogue field") {
		t.Errorf("expected duplicate warning, logs: %s", logs.String())
	}
}

func TestBuilderAliasErrors(t *testing.T) {
	age := FieldSpec{Name: "Age", Labels: []string{"Age"}, Shape: ShapeInteger}
	bmi := FieldSpec{Name: "BMI", Labels: []string{"BMI"}, Shape: ShapeDecimal}

	tests := []struct {
		name  string
		build func(b *Builder) *Builder
	}{
		{"unknown field", func(b *Builder) *Builder { return b.Add(age).Alias("Gender", "Sex") }},
		{"no keys", func(b *Builder) *Builder { return b.Add(age).Alias("Age") }},
		{"empty key", func(b *Builder) *Builder { return b.Add(age).Alias("Age", "") }},
		{"shadows canonical", func(b *Builder) *Builder { return b.Add(age).Add(bmi).Alias("Age", "BMI") }},
		{"key reused", func(b *Builder) *Builder { return b.Add(age).Add(bmi).Alias("Age", "X").Alias("BMI", "X") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build(NewBuilder(quietLogger())).Build()
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("Build() error = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

func TestCatalogAccessorsReturnCopies(t *testing.T) {
	cat, err := NewBuilder(quietLogger()).
		Add(FieldSpec{Name: "Age", Labels: []string{"Age"}, Shape: ShapeInteger, Aliases: []string{"age_years"}}).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	cat.Aliases()[0].Keys[0] = "mutated"
	cat.Fields()[0] = nil
	f, _ := cat.Field("Age")
	f.Spec().Labels[0] = "mutated"

	if got := cat.Aliases()[0].Keys[0]; got != "age_years" {
		t.Errorf("alias key mutated through accessor: %q", got)
	}
	if cat.Fields()[0] == nil {
		t.Error("field slice mutated through accessor")
	}
	if got := f.Spec().Labels[0]; got != "Age" {
		t.Errorf("label mutated through accessor: %q", got)
	}
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

func TestParseYAML(t *testing.T) {
	doc := `
fields:
  - name: Age
    labels: ["Age"]
    shape: integer
  - name: Smoker
    labels: ["Smoker", "Smoking"]
    shape: boolean
    require_colon: true
    aliases: ["smoker"]
aliases:
  - field: Age
    keys: ["age"]
`
	cat, err := Parse([]byte(doc), quietLogger())
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := []string{"Age", "Smoker", "smoker", "age"}
	got := cat.Keys()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestParseJSON(t *testing.T) {
	doc := `{"fields": [{"name": "BMI", "labels": ["BMI", "Body Mass Index"], "shape": "decimal"}]}`
	cat, err := Parse([]byte(doc), quietLogger())
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	f, _ := cat.Field("BMI")
	if got, ok := f.Match("Body Mass Index: 24.1"); !ok || got != "24.1" {
		t.Errorf("BMI match = %q, %v", got, ok)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"not yaml", "fields: [unclosed"},
		{"no fields", `aliases: []`},
		{"empty fields", `fields: []`},
		{"unknown shape", `fields: [{name: Age, labels: [Age], shape: date}]`},
		{"missing shape and pattern", `fields: [{name: Age, labels: [Age]}]`},
		{"unknown property", `fields: [{name: Age, labels: [Age], shape: integer, colour: red}]`},
		{"alias without keys", "fields: [{name: Age, labels: [Age], shape: integer}]\naliases: [{field: Age, keys: []}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), quietLogger())
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("Parse() error = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	doc := "fields:\n  - name: Insulin\n    labels: [Insulin]\n    shape: integer\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := LoadFile(path, quietLogger())
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cat.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), quietLogger()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadReader(t *testing.T) {
	cat, err := Load(strings.NewReader(`{"fields": [{"name": "Age", "pattern": "Age=(\\d+)"}]}`), quietLogger())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	f, _ := cat.Field("Age")
	if got, ok := f.Match("Age=7"); !ok || got != "7" {
		t.Errorf("Age match = %q, %v", got, ok)
	}
}
