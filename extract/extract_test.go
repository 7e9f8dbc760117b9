package extract

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/carbocation/geopipe"
)

const fullTable = `Illumina, Inc.
[Heading]
Date	11/30/2010
ScanType	Gene
[Probes]
Species	Source	ILMN_Gene	Definition	Probe_Id
Homo sapiens	RefSeq	7A5	Homo sapiens erythroblast membrane-associated protein	ILMN_1762337
Homo sapiens	RefSeq	A1BG	Homo sapiens alpha-1-B glycoprotein	ILMN_2055271

Homo sapiens	RefSeq	A1CF	Homo sapiens APOBEC1 complementation factor	ILMN_1736007
[Controls]
Probe_Id	Array_Address_Id	Reporter_Group_Name
ILMN_1343291	3450719	housekeeping
[Columns]
Species	Species
`

func gz(t *testing.T, content string) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type member struct {
	Name string
	Body []byte
}

// writeTar puts members into a plain .tar at tarPath.
func writeTar(t *testing.T, tarPath string, members ...member) {
	if err := os.MkdirAll(filepath.Dir(tarPath), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(tarPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tw := tar.NewWriter(f)
	if err := tw.WriteHeader(&tar.Header{Name: "subdir/", Typeflag: tar.TypeDir, Mode: 0755}); err != nil {
		t.Fatal(err)
	}
	for _, m := range members {
		hdr := &tar.Header{
			Name:     m.Name,
			Mode:     int64(0644),
			Size:     int64(len(m.Body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(m.Body); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

func readTSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	recs, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func testDataset(t *testing.T) geopipe.Dataset {
	return geopipe.Dataset{Directory: t.TempDir(), Name: "GSE68849", Series: "GSE68nnn"}
}

func TestExtractSplitsFullTable(t *testing.T) {
	ds := testDataset(t)
	writeTar(t, ds.ArchivePath(),
		member{"subdir/GSM1683095_Sample.txt.gz", gz(t, "ID_REF\tVALUE\nILMN_1762337\t1.0\n")},
		member{"GPL10558_HumanHT-12_V4_0_R2_15002873_B.txt.gz", gz(t, fullTable)},
	)

	res, err := Extract(ds, geopipe.DefaultConventions())
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(res.FullTable) != "GPL10558_HumanHT-12_V4_0_R2_15002873_B.txt" {
		t.Fatalf("wrong full table chosen: %s", res.FullTable)
	}

	// Compressed copies are gone, decompressed ones are flattened into the target
	for _, name := range []string{"GSM1683095_Sample.txt.gz", "GPL10558_HumanHT-12_V4_0_R2_15002873_B.txt.gz"} {
		if exists(t, filepath.Join(ds.TargetDir(), name)) {
			t.Fatalf("%s should have been removed", name)
		}
	}
	if !exists(t, filepath.Join(ds.TargetDir(), "GSM1683095_Sample.txt")) {
		t.Fatalf("sample member was not decompressed")
	}

	// One table per distinct header
	tsvs, err := filepath.Glob(filepath.Join(ds.TargetDir(), "*.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, 0, len(tsvs))
	for _, v := range tsvs {
		got = append(got, strings.TrimSuffix(filepath.Base(v), ".tsv"))
	}
	sort.Strings(got)
	if strings.Join(got, ",") != "Columns,Controls,Heading,Probes" {
		t.Fatalf("unexpected tables: %v", got)
	}

	probes := readTSV(t, ds.ProbesPath())
	if len(probes) != 4 {
		t.Fatalf("expected header plus 3 probes, got %d rows", len(probes))
	}
	if probes[0][3] != "Definition" || probes[3][4] != "ILMN_1736007" {
		t.Fatalf("unexpected probes content: %v", probes)
	}

	heading := readTSV(t, ds.TablePath("Heading"))
	if strings.Join(heading[0], ",") != "0,1" || heading[1][1] != "11/30/2010" {
		t.Fatalf("headerless section should get an index header: %v", heading)
	}

	for _, s := range res.Sections {
		if s.Name == "Probes" && (s.Rows != 3 || s.Columns != 5) {
			t.Fatalf("probes summary: %+v", s)
		}
	}
}

func TestExtractSkipsWhenProbesExist(t *testing.T) {
	ds := testDataset(t)
	if err := os.MkdirAll(ds.TargetDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ds.ProbesPath(), nil, 0644); err != nil {
		t.Fatal(err)
	}

	// No archive at all: a run that did any work would fail
	res, err := Extract(ds, geopipe.DefaultConventions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped {
		t.Fatalf("expected skip")
	}
}

func TestExtractWithoutFullTable(t *testing.T) {
	ds := testDataset(t)
	writeTar(t, ds.ArchivePath(), member{"GSM1683095_Sample.txt.gz", gz(t, "a\tb\n")})

	_, err := Extract(ds, geopipe.DefaultConventions())

	var fmtErr *geopipe.FormatError
	if !errors.As(err, &fmtErr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
}

func TestExtractWithoutProbesSection(t *testing.T) {
	ds := testDataset(t)
	writeTar(t, ds.ArchivePath(), member{"GPL1_annotation.txt.gz", gz(t, "[Controls]\nProbe_Id\nILMN_1\n")})

	_, err := Extract(ds, geopipe.DefaultConventions())

	var fmtErr *geopipe.FormatError
	if !errors.As(err, &fmtErr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
}

func TestExtractMissingArchive(t *testing.T) {
	_, err := Extract(testDataset(t), geopipe.DefaultConventions())

	var fsErr *geopipe.FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected FilesystemError, got %T: %v", err, err)
	}
}

func TestDecompressRejectsMislabeledMember(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt.gz")
	if err := os.WriteFile(path, []byte("not gzip at all"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Decompress(path)

	var fmtErr *geopipe.FormatError
	if !errors.As(err, &fmtErr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
}

func TestDecompressZipMember(t *testing.T) {
	src := filepath.Join(t.TempDir(), "GSM1_Sample.txt.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("GSM1_Sample.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("ID_REF\tVALUE\nILMN_1\t1.0\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	dest, err := Decompress(src)
	if err != nil {
		t.Fatal(err)
	}
	if dest != strings.TrimSuffix(src, ".zip") {
		t.Fatalf("decompressed to %s", dest)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ID_REF\tVALUE\nILMN_1\t1.0\n" {
		t.Fatalf("content: %q", got)
	}
	if exists(t, src) {
		t.Fatalf("compressed copy should be removed")
	}
}

func TestUntarGzippedArchive(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.tar")
	writeTar(t, plain, member{"../../escape.txt", []byte("x")})

	raw, err := os.ReadFile(plain)
	if err != nil {
		t.Fatal(err)
	}
	zipped := filepath.Join(dir, "archive.tar.gz")
	if err := os.WriteFile(zipped, gz(t, string(raw)), 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out")
	members, err := Untar(zipped, out)
	if err != nil {
		t.Fatal(err)
	}

	if len(members) != 1 || members[0] != filepath.Join(out, "escape.txt") {
		t.Fatalf("member paths should be flattened into the target: %v", members)
	}
}

func TestUntarDuplicateBaseNames(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "GSE1.tar")
	writeTar(t, archive,
		member{"a/GSM1_Sample.txt.gz", gz(t, "ID_REF\tVALUE\n")},
		member{"b/GSM1_Sample.txt.gz", gz(t, "ID_REF\tVALUE\n")},
	)

	_, err := Untar(archive, filepath.Join(dir, "out"))

	var fmtErr *geopipe.FormatError
	if !errors.As(err, &fmtErr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
	for _, name := range []string{"a/GSM1_Sample.txt.gz", "b/GSM1_Sample.txt.gz"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error should name %s: %v", name, err)
		}
	}
}

func TestUntarDecompressedNameClash(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "GSE1.tar")
	writeTar(t, archive,
		member{"GSM1_Sample.txt", []byte("ID_REF\tVALUE\n")},
		member{"GSM1_Sample.txt.gz", gz(t, "ID_REF\tVALUE\n")},
	)

	_, err := Untar(archive, filepath.Join(dir, "out"))

	var fmtErr *geopipe.FormatError
	if !errors.As(err, &fmtErr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
}

func TestExtractReplacesLeftoversFromEarlierRun(t *testing.T) {
	ds := testDataset(t)
	writeTar(t, ds.ArchivePath(),
		member{"GPL10558_HumanHT-12_V4_0_R2_15002873_B.txt.gz", gz(t, fullTable)},
	)

	// An interrupted run got as far as decompressing but wrote no tables
	stale := filepath.Join(ds.TargetDir(), "GPL10558_HumanHT-12_V4_0_R2_15002873_B.txt")
	if err := os.WriteFile(stale, []byte("half written"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Extract(ds, geopipe.DefaultConventions()); err != nil {
		t.Fatal(err)
	}
	if rows := readTSV(t, ds.ProbesPath()); len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := geopipe.Exists(path)
	if err != nil {
		t.Fatal(err)
	}
	return ok
}
