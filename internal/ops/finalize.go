package ops

import (
	"github.com/jacksmith/finalizer/internal/model"
)

// StepStatus is the outcome of one finalizer step.
type StepStatus string

const (
	StepDone     StepStatus = "done"
	StepNotFound StepStatus = "not found"
	StepKept     StepStatus = "kept"
	StepSkipped  StepStatus = "skipped"
	StepFailed   StepStatus = "failed"
)

// Step names in run order.
const (
	StepDetectSDK        = "detect sdk"
	StepRemoveDependent  = "remove dependent"
	StepWorkloadRecords  = "workload records"
	StepInstallStateFile = "install state file"
	StepRebootCheck      = "reboot check"
)

// Step records the outcome of one step.
type Step struct {
	Name   string
	Status StepStatus
	Detail string
}

// Report describes a finalizer run.
type Report struct {
	Band     model.FeatureBand
	Platform string
	// SDKPresent means another SDK in the band is installed and nothing was
	// cleaned up.
	SDKPresent     bool
	Dependent      DependentResult
	RebootRequired bool
	Steps          []Step
}

func (r *Report) add(name string, status StepStatus, detail string) {
	r.Steps = append(r.Steps, Step{Name: name, Status: status, Detail: detail})
}

// Run finalizes the removal of the SDK version for platform.
//
// Nothing is cleaned up if another SDK in the same feature band is still
// installed. Otherwise the SDK's dependent registration, workload records
// and install state file are removed. Each step checks current state, so Run
// can be repeated safely after an interruption.
//
// Returns an error wrapping model.ErrInvalidVersionFormat before touching
// anything if version is not a valid SDK version. A failure removing the
// dependent is recorded as a failed step and the run continues. Other errors
// come from a failed destructive step and stop the run; the report covers
// the steps completed so far.
func (f *Finalizer) Run(version, platform string) (*Report, error) {
	log := f.logger()
	report := &Report{Platform: platform}

	band, err := model.ParseFeatureBand(version)
	if err != nil {
		log.Error("Invalid SDK version", "version", version, "error", err)
		return report, err
	}
	report.Band = band
	log.Info("Finalizing SDK removal", "version", version, "band", band.String(), "platform", platform)

	if f.DetectSDK(band, platform) {
		report.SDKPresent = true
		report.add(StepDetectSDK, StepDone, "another SDK in band "+band.String()+" is installed")
		log.Info("SDK feature band is still installed, nothing to clean up", "band", band.String())
		return report, nil
	}
	report.add(StepDetectSDK, StepNotFound, "no SDK in band "+band.String())

	dependent := f.DependentName(band, platform)
	res, err := f.RemoveDependent(dependent)
	report.Dependent = res
	report.RebootRequired = res.RebootRequired
	if err != nil {
		// Later steps still run; the reboot flag gathered so far is kept.
		log.Error("Failed to remove dependent", "dependent", dependent, "error", err)
		report.add(StepRemoveDependent, StepFailed, err.Error())
	} else {
		report.add(StepRemoveDependent, dependentStatus(res), dependentDetail(dependent, res))
	}

	deleted, err := f.DeleteWorkloadRecords(band, platform)
	if err != nil {
		log.Error("Failed to delete workload records", "error", err)
		report.add(StepWorkloadRecords, StepFailed, err.Error())
		return report, err
	}
	report.add(StepWorkloadRecords, foundStatus(deleted), WorkloadRecordPath(band, platform))

	deleted, err = f.DeleteInstallStateFile(band, platform)
	if err != nil {
		log.Error("Failed to delete install state file", "error", err)
		report.add(StepInstallStateFile, StepFailed, err.Error())
		return report, err
	}
	report.add(StepInstallStateFile, foundStatus(deleted), f.InstallStatePath(band, platform))

	pending := f.IsRebootPending()
	report.RebootRequired = report.RebootRequired || pending
	if report.RebootRequired {
		report.add(StepRebootCheck, StepDone, "reboot required")
		log.Info("A reboot is required")
	} else {
		report.add(StepRebootCheck, StepNotFound, "no reboot pending")
	}

	return report, nil
}

func foundStatus(found bool) StepStatus {
	if found {
		return StepDone
	}
	return StepNotFound
}

func dependentStatus(res DependentResult) StepStatus {
	switch {
	case !res.Found():
		return StepNotFound
	case res.Remaining > 0:
		return StepKept
	default:
		return StepDone
	}
}

func dependentDetail(dependent string, res DependentResult) string {
	switch {
	case !res.Found():
		return dependent
	case res.ProductRemoved:
		return res.Provider + " (product " + res.ProductCode + ": " + res.Result.String() + ")"
	default:
		return res.Provider
	}
}
