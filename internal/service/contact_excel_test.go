package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateContactImportTemplate(t *testing.T) {
	data, err := GenerateContactImportTemplate()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	require.Len(t, rows, 1) // 只有表头
	require.Equal(t, ContactImportHeader, rows[0])
}

func TestGenerateContactsExcel_WithRows(t *testing.T) {
	data, err := GenerateContactsExcel(
		[]string{"Name", "City"},
		[][]string{{"Asha Shah", "Mumbai"}, {"Rahul", "Pune"}},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"Asha Shah", "Mumbai"}, rows[1])
	require.Equal(t, []string{"Rahul", "Pune"}, rows[2])
}
