package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"cafesync-ai/pkg/models"
	"cafesync-ai/pkg/services"

	"github.com/xuri/excelize/v2"
)

// 在庫ファイルの列名候補
var (
	nameColumns     = []string{"name", "item", "品目", "品名", "商品名", "商品"}
	stockColumns    = []string{"currentStock", "current_stock", "stock", "在庫", "在庫数", "現在庫"}
	minStockColumns = []string{"minStock", "min_stock", "minimum", "最小在庫", "最低在庫"}
)

// readInventoryRows .xlsxまたは.csvを行単位で読み込む
func readInventoryRows(fileName string, r io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: Excelファイルの読み込みに失敗しました: %w", services.ErrInvalidInput, err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("%w: Excelシートの行取得に失敗しました: %w", services.ErrInvalidInput, err)
		}
		return rows, nil
	case ".csv":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("%w: CSVファイルの解析に失敗しました: %w", services.ErrInvalidInput, err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: サポートされていないファイル形式です。.xlsxまたは.csvをアップロードしてください", services.ErrInvalidInput)
	}
}

// parseInventoryRows ヘッダー行から列を検出し、在庫品目に変換する
func parseInventoryRows(rows [][]string) ([]models.InventoryItem, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: ファイルにはヘッダー行と少なくとも1行のデータが必要です", services.ErrInvalidInput)
	}

	header := rows[0]
	nameIdx := findIndex(header, nameColumns...)
	stockIdx := findIndex(header, stockColumns...)
	minIdx := findIndex(header, minStockColumns...)

	var missing []string
	if nameIdx == -1 {
		missing = append(missing, "name")
	}
	if stockIdx == -1 {
		missing = append(missing, "currentStock")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: 必要な列が見つかりませんでした: %s（ヘッダー: %v）",
			services.ErrInvalidInput, strings.Join(missing, ", "), header)
	}

	items := make([]models.InventoryItem, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		name := cell(row, nameIdx)
		if name == "" {
			// 空行は読み飛ばす
			continue
		}

		stock, err := strconv.ParseFloat(cell(row, stockIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %d行目の在庫数が数値ではありません: %q", services.ErrInvalidInput, line, cell(row, stockIdx))
		}
		item := models.InventoryItem{Name: name, CurrentStock: stock}

		if raw := cell(row, minIdx); raw != "" {
			minStock, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %d行目の最小在庫が数値ではありません: %q", services.ErrInvalidInput, line, raw)
			}
			item.MinStock = &minStock
		}
		items = append(items, item)
	}
	return items, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
