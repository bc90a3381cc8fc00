package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

// maxSlotRows caps the slot table; the JSON report always carries every slot.
const maxSlotRows = 20

// Render prints the report as tables.
func Render(w io.Writer, report Report) {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()

	newTable := func(title string, headers ...interface{}) table.Table {
		fmt.Fprintf(w, "\n%s\n", color.New(color.Bold).Sprint(title))
		return table.New(headers...).
			WithWriter(w).
			WithHeaderFormatter(headerFmt).
			WithFirstColumnFormatter(columnFmt)
	}

	blocks := newTable("Gas per block", "Block", "Gas Used")
	for _, block := range report.Blocks {
		blocks.AddRow(block.BlockNumber, FormatLargeNumber(block.GasUsed))
	}
	blocks.AddRow("total", report.TotalBlockGas)
	blocks.Print()

	histogram := newTable("Transaction gas usage", "Gas Range", "Transactions")
	for _, bucket := range report.GasHistogram {
		histogram.AddRow(fmt.Sprintf("%s-%s", FormatLargeNumber(bucket.From), FormatLargeNumber(bucket.To)), bucket.Count)
	}
	histogram.AddRow("total gas", report.TotalTxGas)
	histogram.Print()

	slots := newTable("Storage slot frequency", "Slot", "Accesses", "Blocks")
	for i, slot := range report.Slots {
		if i == maxSlotRows {
			break
		}
		slots.AddRow(AbbreviateSlot(slot.Slot), slot.Total, blockList(slot.PerBlock))
	}
	slots.Print()
	if len(report.Slots) > maxSlotRows {
		fmt.Fprintf(w, "... %d more slots\n", len(report.Slots)-maxSlotRows)
	}
}

// FormatLargeNumber shortens gas quantities to K and M suffixes.
func FormatLargeNumber(n uint64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.0fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// AbbreviateSlot keeps the first 6 and the last 4 characters of a slot key.
func AbbreviateSlot(slot string) string {
	if len(slot) <= 13 {
		return slot
	}
	return slot[:6] + "..." + slot[len(slot)-4:]
}

func blockList(perBlock map[uint64]uint64) string {
	numbers := make([]uint64, 0, len(perBlock))
	for number := range perBlock {
		numbers = append(numbers, number)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	out := ""
	for i, number := range numbers {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%d(%d)", number, perBlock[number])
	}
	return out
}
