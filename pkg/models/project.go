package models

// FactoryID identifies a module factory within a pack.
type FactoryID struct {
	Module string `json:"module" yaml:"module" validate:"required"`
	Pack   string `json:"pack"   yaml:"pack"   validate:"required"`
}

func (f FactoryID) String() string {
	return f.Pack + "/" + f.Module
}

// ModuleView is the persisted shape of a module instance.
type ModuleView struct {
	ModuleID      string              `json:"moduleId"      yaml:"moduleId"      validate:"required"`
	FactoryID     FactoryID           `json:"factoryId"     yaml:"factoryId"     validate:"required"`
	Configuration ModuleConfiguration `json:"configuration" yaml:"configuration"`
}

// Workflow is the persisted graph of a project.
type Workflow struct {
	Modules     []*ModuleView `json:"modules"     yaml:"modules"     validate:"dive"`
	Connections []*Connection `json:"connections" yaml:"connections" validate:"dive"`
}

// Project is the persisted document describing an application.
type Project struct {
	ID          string   `json:"id"                    yaml:"id"                    validate:"required"`
	Name        string   `json:"name"                  yaml:"name"                  validate:"required,min=1"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Workflow    Workflow `json:"workflow"              yaml:"workflow"`
}
