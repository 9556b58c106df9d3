package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/gridfold/ucommit/core/model"
)

// WriteJSON writes the result rows to w in JSON format.
func WriteJSON(w io.Writer, rows []model.ResultRow) error {
	enc := json.NewEncoder(w)
	return enc.Encode(rows)
}

var csvHeader = []string{
	"unit", "timepoint", "gross_power_mw", "auxiliary_mw", "net_power_mw",
	"committed_mw", "commitment", "startup", "shutdown", "synced",
	"active_startup_type", "ramp_up_violation", "ramp_down_violation",
	"min_up_violation", "min_down_violation", "variable_cost", "fuel_cost",
	"startup_cost", "shutdown_cost", "violation_cost",
}

// WriteCSV writes the result rows to w in CSV format.
func WriteCSV(w io.Writer, rows []model.ResultRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Unit,
			strconv.Itoa(r.Timepoint),
			f(r.GrossPowerMW),
			f(r.AuxiliaryMW),
			f(r.NetPowerMW),
			f(r.CommittedMW),
			f(r.Commitment),
			f(r.Startup),
			f(r.Shutdown),
			f(r.Synced),
			strconv.Itoa(r.ActiveStartup),
			f(r.RampUpViol),
			f(r.RampDownViol),
			f(r.MinUpViol),
			f(r.MinDownViol),
			f(r.VariableCost),
			f(r.FuelCost),
			f(r.StartupCost),
			f(r.ShutdownCost),
			f(r.ViolationCost),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDualsCSV writes constraint duals to w in CSV format.
func WriteDualsCSV(w io.Writer, duals []model.ConstraintDual) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"unit", "timepoint", "constraint", "dual"}); err != nil {
		return err
	}
	for _, d := range duals {
		rec := []string{d.Unit, strconv.Itoa(d.Timepoint), d.Constraint, f(d.Value)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
