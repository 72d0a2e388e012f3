package domain

import "time"

// Allowed values for the enum-like IT-domain fields.
const (
	BusinessUnitCN = "CN"
	BusinessUnitPC = "PC"

	ReuseIPYes = "Y"
	ReuseIPNo  = "N"

	DefaultIPSubtype = "default"
)

// ProjectRecord is the IT-domain description of a DV project. It is the shape
// of both the projects table and the imported snapshot on the NX side.
type ProjectRecord struct {
	ID              int64  `json:"id,omitempty" yaml:"id,omitempty" db:"id"`
	ProjectName     string `json:"project_name" yaml:"project_name" db:"project_name" validate:"required"`
	SpipIP          string `json:"spip_ip" yaml:"spip_ip" db:"spip_ip"`
	IP              string `json:"ip" yaml:"ip" db:"ip"`
	IPPostfix       string `json:"ip_postfix" yaml:"ip_postfix" db:"ip_postfix"`
	IPSubtype       string `json:"ip_subtype" yaml:"ip_subtype" db:"ip_subtype"`
	AlternativeName string `json:"alternative_name" yaml:"alternative_name" db:"alternative_name"`
	TaskIndex       string `json:"task_index" yaml:"task_index" db:"task_index"`
	DVEngineer      string `json:"dv_engineer" yaml:"dv_engineer" db:"dv_engineer"`
	DigitalDesigner string `json:"digital_designer" yaml:"digital_designer" db:"digital_designer"`
	BusinessUnit    string `json:"business_unit" yaml:"business_unit" db:"business_unit" validate:"omitempty,oneof=CN PC"`
	AnalogDesigner  string `json:"analog_designer" yaml:"analog_designer" db:"analog_designer"`
	InheritFromIP   string `json:"inherit_from_ip" yaml:"inherit_from_ip" db:"inherit_from_ip"`
	ReuseIP         string `json:"reuse_ip" yaml:"reuse_ip" db:"reuse_ip" validate:"omitempty,oneof=Y N"`
	SpipURL         string `json:"spip_url" yaml:"spip_url" db:"spip_url" validate:"omitempty,url"`
	WikiURL         string `json:"wiki_url" yaml:"wiki_url" db:"wiki_url" validate:"omitempty,url"`
	SpecVersion     string `json:"spec_version" yaml:"spec_version" db:"spec_version"`
	SpecPath        string `json:"spec_path" yaml:"spec_path" db:"spec_path"`
}

// Key returns the normalized join key of the record.
func (p ProjectRecord) Key() ProjectKey {
	return NormalizeKey(p.ProjectName)
}

// Values returns the column values in ProjectColumns order.
func (p ProjectRecord) Values() []string {
	return []string{
		p.ProjectName, p.SpipIP, p.IP, p.IPPostfix, p.IPSubtype, p.AlternativeName,
		p.TaskIndex, p.DVEngineer, p.DigitalDesigner, p.BusinessUnit, p.AnalogDesigner,
		p.InheritFromIP, p.ReuseIP, p.SpipURL, p.WikiURL, p.SpecVersion, p.SpecPath,
	}
}

// ProjectColumns lists the IT-domain columns in storage and export order.
var ProjectColumns = []string{
	"project_name", "spip_ip", "ip", "ip_postfix", "ip_subtype", "alternative_name",
	"task_index", "dv_engineer", "digital_designer", "business_unit", "analog_designer",
	"inherit_from_ip", "reuse_ip", "spip_url", "wiki_url", "spec_version", "spec_path",
}

// SnapshotRecord is a row of the imported snapshot: an IT-domain record
// materialized on the NX side together with its import metadata.
type SnapshotRecord struct {
	ProjectRecord `yaml:",inline"`
	ImportDate    time.Time `json:"import_date" yaml:"import_date" db:"import_date"`
	ImportBatch   string    `json:"import_batch" yaml:"import_batch" db:"import_batch"`
}

// CoverageRecord holds coverage metrics reported for a project on the NX side.
type CoverageRecord struct {
	ID                      int64    `json:"id,omitempty" yaml:"id,omitempty" db:"id"`
	ProjectName             string   `json:"project_name" yaml:"project_name" db:"project_name" validate:"required"`
	LineCoverage            *float64 `json:"line_coverage" yaml:"line_coverage" db:"line_coverage" validate:"omitempty,gte=0,lte=100"`
	FSMCoverage             *float64 `json:"fsm_coverage" yaml:"fsm_coverage" db:"fsm_coverage" validate:"omitempty,gte=0,lte=100"`
	InterfaceToggleCoverage *float64 `json:"interface_toggle_coverage" yaml:"interface_toggle_coverage" db:"interface_toggle_coverage" validate:"omitempty,gte=0,lte=100"`
	ToggleCoverage          *float64 `json:"toggle_coverage" yaml:"toggle_coverage" db:"toggle_coverage" validate:"omitempty,gte=0,lte=100"`
	CoverageReportPath      *string  `json:"coverage_report_path" yaml:"coverage_report_path" db:"coverage_report_path"`
	TODate                  NullTime `json:"to_date" yaml:"to_date" db:"to_date"`
	RTLLastUpdate           NullTime `json:"rtl_last_update" yaml:"rtl_last_update" db:"rtl_last_update"`
	TOReportCreation        NullTime `json:"to_report_creation" yaml:"to_report_creation" db:"to_report_creation"`
}

// VersionControlRecord holds SVN/git provenance for a project on the NX side.
type VersionControlRecord struct {
	ID                     int64   `json:"id,omitempty" yaml:"id,omitempty" db:"id"`
	ProjectName            string  `json:"project_name" yaml:"project_name" db:"project_name" validate:"required"`
	SanitySVN              *string `json:"sanity_svn" yaml:"sanity_svn" db:"sanity_svn"`
	SanitySVNVer           *string `json:"sanity_svn_ver" yaml:"sanity_svn_ver" db:"sanity_svn_ver"`
	ReleaseSVN             *string `json:"release_svn" yaml:"release_svn" db:"release_svn"`
	ReleaseSVNVer          *string `json:"release_svn_ver" yaml:"release_svn_ver" db:"release_svn_ver"`
	GitPath                *string `json:"git_path" yaml:"git_path" db:"git_path"`
	GitVersion             *string `json:"git_version" yaml:"git_version" db:"git_version" validate:"omitempty,githash"`
	GoldenChecklist        *string `json:"golden_checklist" yaml:"golden_checklist" db:"golden_checklist"`
	GoldenChecklistVersion *string `json:"golden_checklist_version" yaml:"golden_checklist_version" db:"golden_checklist_version"`
}

// MergedProjectView is one row of the TO summary: the union of the imported
// snapshot, coverage and version control records for a single project.
// Fields that the contributing sources do not have are nil.
type MergedProjectView struct {
	// ID is the imported snapshot surrogate; nil for rows without a snapshot.
	ID          *int64  `json:"id" yaml:"id" db:"id"`
	ProjectName string  `json:"project_name" yaml:"project_name" db:"project_name"`
	TaskIndex   *string `json:"task_index" yaml:"task_index" db:"task_index"`

	SpipIP          *string `json:"spip_ip" yaml:"spip_ip" db:"spip_ip"`
	IP              *string `json:"ip" yaml:"ip" db:"ip"`
	IPPostfix       *string `json:"ip_postfix" yaml:"ip_postfix" db:"ip_postfix"`
	IPSubtype       *string `json:"ip_subtype" yaml:"ip_subtype" db:"ip_subtype"`
	AlternativeName *string `json:"alternative_name" yaml:"alternative_name" db:"alternative_name"`

	LineCoverage            *float64 `json:"line_coverage" yaml:"line_coverage" db:"line_coverage"`
	FSMCoverage             *float64 `json:"fsm_coverage" yaml:"fsm_coverage" db:"fsm_coverage"`
	InterfaceToggleCoverage *float64 `json:"interface_toggle_coverage" yaml:"interface_toggle_coverage" db:"interface_toggle_coverage"`
	ToggleCoverage          *float64 `json:"toggle_coverage" yaml:"toggle_coverage" db:"toggle_coverage"`
	CoverageReportPath      *string  `json:"coverage_report_path" yaml:"coverage_report_path" db:"coverage_report_path"`

	DVEngineer      *string `json:"dv_engineer" yaml:"dv_engineer" db:"dv_engineer"`
	DigitalDesigner *string `json:"digital_designer" yaml:"digital_designer" db:"digital_designer"`
	BusinessUnit    *string `json:"business_unit" yaml:"business_unit" db:"business_unit"`

	SanitySVN              *string `json:"sanity_svn" yaml:"sanity_svn" db:"sanity_svn"`
	SanitySVNVer           *string `json:"sanity_svn_ver" yaml:"sanity_svn_ver" db:"sanity_svn_ver"`
	ReleaseSVN             *string `json:"release_svn" yaml:"release_svn" db:"release_svn"`
	ReleaseSVNVer          *string `json:"release_svn_ver" yaml:"release_svn_ver" db:"release_svn_ver"`
	GitPath                *string `json:"git_path" yaml:"git_path" db:"git_path"`
	GitVersion             *string `json:"git_version" yaml:"git_version" db:"git_version"`
	GoldenChecklist        *string `json:"golden_checklist" yaml:"golden_checklist" db:"golden_checklist"`
	GoldenChecklistVersion *string `json:"golden_checklist_version" yaml:"golden_checklist_version" db:"golden_checklist_version"`

	TODate           NullTime `json:"to_date" yaml:"to_date" db:"to_date"`
	RTLLastUpdate    NullTime `json:"rtl_last_update" yaml:"rtl_last_update" db:"rtl_last_update"`
	TOReportCreation NullTime `json:"to_report_creation" yaml:"to_report_creation" db:"to_report_creation"`

	SpipURL        *string `json:"spip_url" yaml:"spip_url" db:"spip_url"`
	WikiURL        *string `json:"wiki_url" yaml:"wiki_url" db:"wiki_url"`
	SpecVersion    *string `json:"spec_version" yaml:"spec_version" db:"spec_version"`
	SpecPath       *string `json:"spec_path" yaml:"spec_path" db:"spec_path"`
	AnalogDesigner *string `json:"analog_designer" yaml:"analog_designer" db:"analog_designer"`
	InheritFromIP  *string `json:"inherit_from_ip" yaml:"inherit_from_ip" db:"inherit_from_ip"`
	ReuseIP        *string `json:"reuse_ip" yaml:"reuse_ip" db:"reuse_ip"`
}

// MergedColumns lists the TO summary columns in export order. The first entry
// is the surrogate id, the remaining 33 are the summary fields.
var MergedColumns = []string{
	"id", "task_index", "project_name",
	"spip_ip", "ip", "ip_postfix", "ip_subtype", "alternative_name",
	"line_coverage", "fsm_coverage", "interface_toggle_coverage", "toggle_coverage", "coverage_report_path",
	"dv_engineer", "digital_designer", "business_unit",
	"sanity_svn", "sanity_svn_ver", "release_svn", "release_svn_ver",
	"git_path", "git_version", "golden_checklist", "golden_checklist_version",
	"to_date", "rtl_last_update", "to_report_creation",
	"spip_url", "wiki_url", "spec_version", "spec_path",
	"analog_designer", "inherit_from_ip", "reuse_ip",
}

// Key returns the normalized join key of the view row.
func (v MergedProjectView) Key() ProjectKey {
	return NormalizeKey(v.ProjectName)
}

// HasSnapshot reports whether the row originates from the imported snapshot.
func (v MergedProjectView) HasSnapshot() bool {
	return v.ID != nil
}

// Cells returns the row in MergedColumns order. Nil values are returned as nil
// so callers can tell them apart from empty strings.
func (v MergedProjectView) Cells() []*string {
	return []*string{
		formatInt(v.ID), v.TaskIndex, &v.ProjectName,
		v.SpipIP, v.IP, v.IPPostfix, v.IPSubtype, v.AlternativeName,
		formatFloat(v.LineCoverage), formatFloat(v.FSMCoverage), formatFloat(v.InterfaceToggleCoverage),
		formatFloat(v.ToggleCoverage), v.CoverageReportPath,
		v.DVEngineer, v.DigitalDesigner, v.BusinessUnit,
		v.SanitySVN, v.SanitySVNVer, v.ReleaseSVN, v.ReleaseSVNVer,
		v.GitPath, v.GitVersion, v.GoldenChecklist, v.GoldenChecklistVersion,
		v.TODate.StringPtr(), v.RTLLastUpdate.StringPtr(), v.TOReportCreation.StringPtr(),
		v.SpipURL, v.WikiURL, v.SpecVersion, v.SpecPath,
		v.AnalogDesigner, v.InheritFromIP, v.ReuseIP,
	}
}

// Event represents an entry in the import/audit event log.
type Event struct {
	ID           int64   `json:"id" db:"id"`
	Timestamp    string  `json:"timestamp" db:"timestamp"`
	BatchUUID    *string `json:"batch_uuid,omitempty" db:"batch_uuid"`
	ResourceType string  `json:"resource_type" db:"resource_type"`
	ResourceKey  *string `json:"resource_key,omitempty" db:"resource_key"`
	EventType    string  `json:"event_type" db:"event_type"`
	Payload      *string `json:"payload,omitempty" db:"payload"` // JSON
}
