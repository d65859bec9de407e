package history

import (
	"fmt"
	"os"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

type dayParquetRow struct {
	Date string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TSS  float64 `parquet:"name=tss, type=DOUBLE"`
	ATL  float64 `parquet:"name=atl, type=DOUBLE"`
	CTL  float64 `parquet:"name=ctl, type=DOUBLE"`
	TSB  float64 `parquet:"name=tsb, type=DOUBLE"`
}

const dateLayout = "2006-01-02"

// Save writes the series to a parquet file, replacing any existing snapshot.
func Save(path string, days []Day) error {
	data, err := marshalParquet(days)
	if err != nil {
		return fmt.Errorf("marshal load history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write load history: %w", err)
	}
	return nil
}

// Load reads a parquet snapshot back into a chronological series.
func Load(path string) ([]Day, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read load history: %w", err)
	}
	days, err := unmarshalParquet(data)
	if err != nil {
		return nil, fmt.Errorf("parse load history: %w", err)
	}
	Sort(days)
	return days, nil
}

func marshalParquet(days []Day) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(dayParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, d := range days {
		row := dayParquetRow{
			Date: d.Date.Format(dateLayout),
			TSS:  d.TSS,
			ATL:  d.ATL,
			CTL:  d.CTL,
			TSB:  d.TSB,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func unmarshalParquet(data []byte) ([]Day, error) {
	fr := parquetbuffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetReader(fr, new(dayParquetRow), 4)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	rows := make([]dayParquetRow, num)
	if err := pr.Read(&rows); err != nil {
		return nil, err
	}

	days := make([]Day, 0, num)
	for _, r := range rows {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("row date %q: %w", r.Date, err)
		}
		days = append(days, Day{Date: date, TSS: r.TSS, ATL: r.ATL, CTL: r.CTL, TSB: r.TSB})
	}
	return days, nil
}
