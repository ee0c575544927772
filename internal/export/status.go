// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package export

// State tracks where the export session is in its lifecycle. Transitions
// are linear through the export phases with Error and Cancelled as exits.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateReady
	StateSelectingDirectory
	StateExportingDocuments
	StateExportingAttachments
	StateDone
	StateError
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateSelectingDirectory:
		return "selecting_directory"
	case StateExportingDocuments:
		return "exporting_documents"
	case StateExportingAttachments:
		return "exporting_attachments"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// StatusType classifies a status message for presentation.
type StatusType string

const (
	StatusInfo    StatusType = "info"
	StatusSuccess StatusType = "success"
	StatusError   StatusType = "error"
	StatusWarning StatusType = "warning"
)

// Status is a point-in-time snapshot published to observers. Progress is
// meaningful only when HasProgress is set; it runs 0-50 over the document
// phase and 50-100 over the attachment phase.
type Status struct {
	IsExporting bool
	Message     string
	Type        StatusType
	Progress    float64
	HasProgress bool
}
