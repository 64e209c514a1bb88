package importer

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

const SampleFilename = "sample-leads.xlsx"

var sampleRows = [][]any{
	{"Rajesh Kumar", "+919876543210", "rajesh.kumar@email.com", "Bhubaneswar", "New", "50-75L", "High", "Looking for 3BHK"},
	{"Priya Sharma", "+919876543211", "priya.sharma@email.com", "Cuttack", "New", "75L-1Cr", "Medium", "Interested in premium apartments"},
	{"Amit Patel", "+919876543212", "amit.patel@email.com", "Puri", "Interested", "40-50L", "High", "Previously visited another project"},
}

// SampleWorkbook builds the import template with a "Leads" sheet.
func SampleWorkbook() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Leads"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range sampleRows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f.WriteToBuffer()
}
