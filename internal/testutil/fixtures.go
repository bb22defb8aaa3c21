// internal/testutil/fixtures.go
package testutil

// Fixture data para tests (valores primitivos solamente, sin dependencias de domain)

// FixtureTarget es el dominio objetivo usado en la mayoría de los tests.
const FixtureTarget = "example.com"

// FixtureHostnames contiene hostnames válidos dentro de FixtureTarget.
var FixtureHostnames = []string{
	"example.com",
	"www.example.com",
	"api.example.com",
	"dev.api.example.com",
}

// FixtureInvalidHostnames contiene candidatos que el validador debe rechazar.
var FixtureInvalidHostnames = []string{
	"",
	"   ",
	"not a domain",
	"localhost",
	"-invalid.com",
	"invalid-.com",
	".example.com",
	"example..com",
	"example.c",
	"example.123",
	"*.example.com",
	"under_score.example.com",
}

// FixtureAmassOutput simula la salida de amass con evidencia en formato flecha.
var FixtureAmassOutput = []string{
	"www.example.com (FQDN) --> a_record --> 93.184.216.34 (IPAddress)",
	"api.example.com (FQDN) --> cname_record --> edge.cdn.net (FQDN)",
	"edge.cdn.net (FQDN) --> a_record --> 10.0.0.1 (IPAddress)",
	"example.com (FQDN) --> ns_record --> ns1.example.com (FQDN)",
}

// FixtureDnsenumOutput simula un reporte de dnsenum con secciones subrayadas.
var FixtureDnsenumOutput = []string{
	"dnsenum VERSION:1.2.6",
	"",
	"-----   example.com   -----",
	"",
	"Host's addresses:",
	"__________________",
	"",
	"example.com.                            300      IN    A        93.184.216.34",
	"",
	"Name Servers:",
	"______________",
	"",
	"ns1.example.com.                        300      IN    A        198.51.100.1",
	"ns1.other.net.                          300      IN    A        198.51.100.2",
	"",
	"Brute forcing with /usr/share/dnsenum/dns.txt:",
	"_______________________________________________",
	"",
	"mail.example.com.                       300      IN    A        198.51.100.3",
	"",
}
