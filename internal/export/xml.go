// Package export renders obligation schedules for audit.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/beevik/etree"

	"github.com/Dan9191/bills-service/internal/models"
)

// ScheduleXML writes the schedule of o as an indented XML document:
//
//	<schedule kind="biller" id="1" name="Electric">
//	  <entry id="7" month="January" year="2026" status="paid">
//	    <expected>1500</expected>
//	    <settled source="linked" transaction="3">1500</settled>
//	  </entry>
//	</schedule>
func ScheduleXML(w io.Writer, o models.Obligation, views []models.EntryView) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	parent := o.Parent()
	root := doc.CreateElement("schedule")
	root.CreateAttr("kind", string(parent.Kind))
	root.CreateAttr("id", strconv.FormatInt(parent.ID, 10))
	root.CreateAttr("name", o.Label())
	root.CreateAttr("account", strconv.FormatInt(o.FundingAccount(), 10))
	if inst, ok := o.(*models.Installment); ok {
		root.CreateAttr("through", inst.EndPeriod().String())
	}

	for _, v := range views {
		el := root.CreateElement("entry")
		el.CreateAttr("id", strconv.FormatInt(v.ID, 10))
		el.CreateAttr("month", v.Period.Month.String())
		el.CreateAttr("year", strconv.Itoa(v.Period.Year))
		el.CreateAttr("status", string(v.Status))
		el.CreateElement("expected").SetText(v.ExpectedAmount.StringFixed(2))

		if !v.Resolved.Settled {
			continue
		}
		settled := el.CreateElement("settled")
		settled.CreateAttr("source", string(v.Resolved.Source))
		if v.Resolved.TransactionID != nil {
			settled.CreateAttr("transaction", strconv.FormatInt(*v.Resolved.TransactionID, 10))
		}
		if v.SettledDate != nil {
			settled.CreateAttr("date", v.SettledDate.Format(models.DateLayout))
		}
		settled.SetText(v.Resolved.Amount.StringFixed(2))
		if v.Receipt != nil {
			el.CreateElement("receipt").SetText(*v.Receipt)
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write schedule XML: %w", err)
	}
	return nil
}
