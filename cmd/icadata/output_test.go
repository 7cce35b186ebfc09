package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequencebio/icadata/internal/ica"
)

func samplePage() *ica.ProjectDataPage {
	return &ica.ProjectDataPage{Items: []ica.ProjectData{
		{Data: ica.Data{ID: "fil.1", Details: ica.DataDetails{Path: "/a/b.txt", DataType: ica.DataTypeFile, FileSizeInBytes: 12, Status: "AVAILABLE"}}},
		{Data: ica.Data{ID: "fol.2", Details: ica.DataDetails{Path: "/a/", DataType: ica.DataTypeFolder}}},
	}}
}

func TestPagePrinterTable(t *testing.T) {
	var buf bytes.Buffer
	p := newPagePrinter(&buf, false)
	require.NoError(t, p.Print(samplePage()))
	require.NoError(t, p.Print(samplePage()))
	require.NoError(t, p.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "fil.1")
	assert.Contains(t, lines[1], "/a/b.txt")
}

func TestPagePrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p := newPagePrinter(&buf, true)
	require.NoError(t, p.Print(samplePage()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var item ica.ProjectData
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &item))
	assert.Equal(t, "fil.1", item.Data.ID)
}
