/*
Package mock provides mock implementations of interfaces for testing purposes.

The ProcessRunner can be scripted with exit codes and output, so backend and
session logic can be exercised without spawning real processes; the
SecretsManagerClient can be used for running tests without relying on
infrastructure in AWS to be set up.
*/
package mock
