package rinex

// Test data shared by the decoder and encoder tests.

const obsRnx3 = `     3.04           OBSERVATION DATA    M                   RINEX VERSION / TYPE
sbf2rin-13.4.3                          20181106 200225 UTC PGM / RUN BY / DATE
BRUX                                                        MARKER NAME
G    4 C1C L1C D1C S1C                                      SYS / # / OBS TYPES
E    2 C1C L1C                                              SYS / # / OBS TYPES
R    3 C1C L1C S1C                                          SYS / # / OBS TYPES
    30.000                                                  INTERVAL
  2018    11     6    19     0    0.0000000     GPS         TIME OF FIRST OBS
                                                            END OF HEADER
> 2018 11 06 19 00  0.0000000  0  3
E11  25003001.123 8 131392201.45617
G05  23619095.450 7 124121236.139 7     -1234.567          43.750
R03  21571402.987 6 115286745.231 6        41.000
> 2018 11 06 19 00 30.0000000  0  3       0.000123456789
E11  25003101.223 8 131392726.956 7
G05  23619195.550 7 124121761.63917                        43.500
R03                 115286903.411 6
>                              4  2
NEW ANTENNA                                                 COMMENT
        0.5000        0.0000        0.0000                  ANTENNA: DELTA H/E/N
`

const obsRnx2 = `     2.11           OBSERVATION DATA    M (MIXED)           RINEX VERSION / TYPE
teqc  2019Feb25     IGN-RGP             20200603 08:03:25UTCPGM / RUN BY / DATE
BRST                                                        MARKER NAME
     6    L1    L2    C1    P2    S1    S2                  # / TYPES OF OBSERV
    30.0000                                                 INTERVAL
                                                            END OF HEADER
 20  6  3  7  0  0.0000000  0 13G01G02G03G05G07G08G10G13G14G15G17G19-0.000012345
                                R02
 120000000.000 7  93500000.000 5  22000000.000    22000005.000          45.000
        38.000
 120001000.123 7  93500777.456 5  22000011.111    22000016.222          45.000
        39.000
 120002000.246 7  93501554.912 5  22000022.222    22000027.444          45.000
        40.000
 120003000.369 7  93502332.368 5  22000033.333                          45.000
        41.000
 120004000.492 7  93503109.824 5  22000044.444    22000049.888          45.000
        42.000
 120005000.615 7  93503887.280 5  22000055.555    22000061.110          45.000
        43.000
 120006000.738 7  93504664.736 5  22000066.666    22000072.332          45.000
        44.000
 120007000.861 7  93505442.192 5  22000077.777    22000083.554          45.000
        45.000
 120008000.984 7  93506219.648 5  22000088.888    22000094.776          45.000
        46.000
 120009001.107 7  93506997.104 5  22000099.999    22000105.998          45.000
        47.000
 120010001.230 7  93507774.560 5  22000111.110    22000117.220          45.000
        48.000
 120011001.353 7  93508552.016 5  22000122.221    22000128.442          45.000
        49.000
 120012001.476 7  93509329.472 5  22000133.332    22000139.664          45.000
        50.000
 20  6  3  7  0 30.0000000  4  1
SITE MOVED                                                  COMMENT
`
