package export

import (
	"fmt"
	"io"

	"todoSync/internal/models/task"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

const SheetName = "Tasks"

const (
	FormatXLSX = "xlsx"
	FormatYAML = "yaml"
)

var header = []any{"ID", "Subject", "Deadline", "Status", "Priority"}

// ContentType возвращает MIME-тип формата; false для неизвестного формата
func ContentType(format string) (string, bool) {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true
	case FormatYAML:
		return "application/yaml", true
	}
	return "", false
}

func Write(w io.Writer, format string, tasks []task.Task) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, tasks)
	case FormatYAML:
		return WriteYAML(w, tasks)
	}
	return fmt.Errorf("неизвестный формат выгрузки: %s", format)
}

// WriteXLSX пишет один лист с шапкой и строкой на каждую задачу
func WriteXLSX(w io.Writer, tasks []task.Task) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("переименование листа: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("создание потока листа: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("создание стиля: %w", err)
	}

	headerCells := make([]any, 0, len(header))
	for _, h := range header {
		headerCells = append(headerCells, excelize.Cell{StyleID: bold, Value: h})
	}
	if err := sw.SetRow("A1", headerCells); err != nil {
		return fmt.Errorf("запись шапки: %w", err)
	}

	for i, t := range tasks {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{t.ID, t.Subject, t.Deadline, string(t.Status), string(t.Priority)}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("запись строки %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("завершение листа: %w", err)
	}
	return f.Write(w)
}

type yamlDocument struct {
	Tasks []task.Task `yaml:"tasks"`
}

func WriteYAML(w io.Writer, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDocument{Tasks: tasks}); err != nil {
		return fmt.Errorf("кодирование yaml: %w", err)
	}
	return enc.Close()
}
