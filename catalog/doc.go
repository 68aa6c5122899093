// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

/*
Package catalog holds the static model catalog consumed by the engine.

The catalog is configuration data, not behavior: each ModelSpec names a
third-party generation model, its category, the endpoint to call per
sub-capability, its default parameters, the inputs it requires, and the
pricing rule used to estimate its cost. The engine reads the catalog and
never writes it.

A built-in table ships with the module (Default) and a deployment may
replace or extend it from a YAML file (LoadFile).
*/
package catalog
