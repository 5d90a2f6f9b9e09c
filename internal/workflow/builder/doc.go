// Package builder assembles the training workflow: train a model, save it,
// register the artifact in the catalog table, stand up an endpoint, wait for
// it to come in service, and test the model. The chain is strictly sequential.
package builder
