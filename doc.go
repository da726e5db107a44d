/*
Package credman provides a uniform interface to retrieve named credentials
from pluggable secret backends. A credential is addressed by the pair
(service name, credential name); the backend holding it may be AWS Secrets
Manager, a HashiCorp Vault KV store, or a Bitwarden vault driven through its
command-line tool.

The Manager type resolves a credential request against a single
SecretBackend and memoizes the most recently fetched secret, so repeated
lookups within the same service hit the backend at most once.

The SecretBackend interface abstracts over the three backend variants. If
the Manager does not fulfill your needs, you can construct a backend
directly and work with whole secret records instead.
*/
package credman
