// Package config models the daemon's configuration tree and system settings.
//
// # Core Components
//
// Element: one directive of the configuration tree, holding a name, an
// optional argument, scalar attributes, and ordered child directives. Worker
// target annotations attached by the assignment pass decide which workers an
// element runs on.
//
// SystemConfig: the process-wide settings the supervisory core consumes
// (worker pool size and identity, supervisor mode, drain mode, emit error log
// suppression, limited mode storage selection). It is passed explicitly; the
// package keeps no global instance.
//
// AssignWorkers: resolves <worker N> and <worker A-B> directives by
// annotating their children with the claimed worker ids, merging them into
// the root element, and removing the wrappers.
//
// # Basic Usage
//
// Loading a configuration document and partitioning it for this worker:
//
//	root, err := config.Load("logstreams.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sys := config.DefaultSystemConfig()
//	sys.Workers = 4
//	sys.WorkerID = workerID
//
//	if err := config.AssignWorkers(root, sys); err != nil {
//		log.Fatal(err)
//	}
//
// After the pass, elements claimed by other workers answer true to
// ForAnotherWorker(sys.WorkerID) and are skipped during configuration.
//
// # Document Format
//
// Configuration documents are JSON or YAML lists of directives:
//
//	- name: source
//	  attrs: {"@type": forward}
//	- name: worker
//	  arg: "0"
//	  children:
//	    - name: match
//	      arg: "app.**"
//	      attrs: {"@type": file}
//
// The classic directive syntax is handled by external tooling; this package
// only consumes the structured form.
package config
