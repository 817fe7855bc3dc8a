// Package mock provides in-memory fakes of the deployer's external
// collaborators for tests.
//
// Registry is an in-memory workflow registry with call recording and error
// injection. RegistryServer exposes a Registry over the same JSON/HTTP
// protocol the production registry client speaks, so command-level tests can
// run the real client against it. Source and Resolver fake the definition
// store and the secret store.
//
// Usage:
//
//	reg := mock.NewRegistry()
//	reg.AddWorkflow("wf-1", "Billing")
//	reg.FailNext(mock.MethodRegisterWorkflowVersion, serverErr)
//
//	src := mock.NewSource(map[string]string{"billing.json": `{"workflowName":"billing"}`})
//
// All fakes are safe for concurrent use.
package mock
